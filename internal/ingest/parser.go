package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseFile reads a ledger export and returns the raw snapshot. The format
// is picked by extension: .csv for spreadsheet exports, .json for API-shaped
// dumps. Both converge on the same wire schema the Normalizer consumes.
func ParseFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		return ParseJSON(f)
	default:
		return nil, fmt.Errorf("unsupported export format %q (want .csv or .json)", filepath.Ext(path))
	}
}

// ParseJSON reads an API-shaped JSON export.
func ParseJSON(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse json export: %w", err)
	}
	return &snap, nil
}

// csv export column names, case-insensitive.
const (
	colID          = "expense id"
	colDate        = "date"
	colDescription = "description"
	colCategory    = "category"
	colCost        = "cost"
	colCurrency    = "currency"
	colGroup       = "group"
	colPayment     = "payment"
	colPaidBy      = "paid by"
)

// ParseCSV reads a spreadsheet export. The export format carries no share
// breakdown, so each row becomes an expense fully paid by the "Paid by"
// user; groups and users are synthesized with identifiers assigned in order
// of first appearance.
func ParseCSV(r io.Reader) (*Snapshot, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("parse csv export: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colDate, colDescription, colCost} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("parse csv export: missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	snap := &Snapshot{}
	groupIDs := map[string]int64{}
	userIDs := map[string]int64{}
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv export: line %d: %w", line+1, err)
		}
		line++

		id, _ := strconv.ParseInt(field(row, colID), 10, 64)
		if id == 0 {
			id = int64(line) // exports without ids get row-ordered ones
		}

		var groupID int64
		if name := field(row, colGroup); name != "" {
			gid, ok := groupIDs[name]
			if !ok {
				gid = int64(len(groupIDs) + 1)
				groupIDs[name] = gid
				snap.Groups = append(snap.Groups, RawGroup{
					ID:        gid,
					Name:      name,
					GroupType: "other",
					UpdatedAt: field(row, colDate),
				})
			}
			groupID = gid
		}

		var shares []RawShare
		var creator RawUser
		if name := field(row, colPaidBy); name != "" {
			uid, ok := userIDs[name]
			if !ok {
				uid = int64(len(userIDs) + 1)
				userIDs[name] = uid
			}
			creator = RawUser{ID: uid, FirstName: name}
			shares = []RawShare{{
				User:      creator,
				PaidShare: field(row, colCost),
				OwedShare: field(row, colCost),
			}}
		}

		currencyCode := field(row, colCurrency)
		if currencyCode == "" {
			currencyCode = "USD"
		}

		snap.Expenses = append(snap.Expenses, RawExpense{
			ID:           id,
			GroupID:      groupID,
			Description:  field(row, colDescription),
			Payment:      strings.EqualFold(field(row, colPayment), "true"),
			Cost:         strings.ReplaceAll(field(row, colCost), ",", ""),
			CurrencyCode: currencyCode,
			Date:         field(row, colDate),
			CreatedBy:    creator,
			Users:        shares,
			Category:     RawCategory{Name: field(row, colCategory)},
		})
	}

	// CSV exports carry no authenticated identity; the first payer
	// encountered stands in as the current user.
	for _, e := range snap.Expenses {
		if e.CreatedBy.ID != 0 {
			snap.CurrentUser = e.CreatedBy
			break
		}
	}
	return snap, nil
}

package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crm-platform/internal/leads"

	"github.com/xuri/excelize/v2"
)

var (
	ErrInvalidFile     = errors.New("importer: invalid file")
	ErrMissingColumns  = errors.New("importer: header must contain name and mobile columns")
	ErrUnsupportedType = errors.New("importer: unsupported file type")
)

// Result summarizes one bulk import run.
type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Service turns uploaded spreadsheets into leads.
//
// Rows missing a mobile number are skipped, as are mobiles already present.
// Each row inserts independently; a bad row never aborts the file.
type Service struct {
	leads *leads.Service
}

func NewService(ls *leads.Service) *Service {
	return &Service{leads: ls}
}

// Import dispatches on the uploaded filename's extension.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (Result, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return s.ImportCSV(ctx, r)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return s.ImportXLSX(ctx, r)
	default:
		return Result{}, ErrUnsupportedType
	}
}

// ImportCSV reads a comma-separated lead sheet. The first row is the header.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return Result{}, err
	}

	var out Result
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		s.importRow(ctx, cols, row, &out)
	}
	return out, nil
}

// ImportXLSX reads the first sheet of an Excel workbook. The first row is the
// header.
func (s *Service) ImportXLSX(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, ErrInvalidFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if len(rows) == 0 {
		return Result{}, ErrInvalidFile
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return Result{}, err
	}

	var out Result
	for _, row := range rows[1:] {
		s.importRow(ctx, cols, row, &out)
	}
	return out, nil
}

// columns maps logical fields to header positions; -1 means absent.
type columns struct {
	name, email, mobile, pincode, project, source, year, location int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{name: -1, email: -1, mobile: -1, pincode: -1, project: -1, source: -1, year: -1, location: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "lead name", "customer name":
			cols.name = i
		case "email", "email id":
			cols.email = i
		case "mobile", "mobile number", "phone", "phone number", "contact":
			cols.mobile = i
		case "pincode", "pin code", "zip":
			cols.pincode = i
		case "project", "project name":
			cols.project = i
		case "source", "lead source":
			cols.source = i
		case "year":
			cols.year = i
		case "location", "city":
			cols.location = i
		}
	}
	if cols.name < 0 || cols.mobile < 0 {
		return columns{}, ErrMissingColumns
	}
	return cols, nil
}

func (s *Service) importRow(ctx context.Context, cols columns, row []string, out *Result) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	mobile := cell(cols.mobile)
	name := cell(cols.name)
	if mobile == "" || name == "" {
		out.Skipped++
		return
	}

	year := 0
	if y := cell(cols.year); y != "" {
		year, _ = strconv.Atoi(y)
	}

	_, err := s.leads.Create(ctx, leads.CreateInput{
		Name:        name,
		Email:       cell(cols.email),
		Mobile:      mobile,
		Pincode:     cell(cols.pincode),
		ProjectName: cell(cols.project),
		Source:      cell(cols.source),
		Year:        year,
		Location:    cell(cols.location),
	})
	if err != nil {
		// Duplicates and malformed rows skip; storage errors skip too rather
		// than failing a half-imported file.
		out.Skipped++
		return
	}
	out.Added++
}

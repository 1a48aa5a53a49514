// Package source 读取CSV与Excel来源文件并取回远端花名册
package source

import (
	"bufio"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/schema"
)

// ReadTable 按扩展名分派读取表格，支持CSV与Excel
func ReadTable(name string, r io.Reader) (schema.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return ReadExcel(name, r)
	default:
		return ReadCSV(name, r)
	}
}

// ReadCSV 读取CSV表格，容忍BOM前缀与列数不齐的行
func ReadCSV(name string, r io.Reader) (schema.Table, error) {
	br := bufio.NewReader(r)
	// UTF-8 BOM
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return schema.Table{}, errors.SourceUnavailable(name, err.Error())
	}
	if len(rows) == 0 {
		return schema.Table{Name: name}, nil
	}

	return schema.Table{
		Name:    name,
		Headers: rows[0],
		Rows:    rows[1:],
	}, nil
}

// ReadExcel 读取Excel工作簿的第一个工作表
func ReadExcel(name string, r io.Reader) (schema.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return schema.Table{}, errors.SourceUnavailable(name, err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return schema.Table{Name: name}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return schema.Table{}, errors.SourceUnavailable(name, err.Error())
	}
	if len(rows) == 0 {
		return schema.Table{Name: name}, nil
	}

	return schema.Table{
		Name:    name,
		Headers: rows[0],
		Rows:    rows[1:],
	}, nil
}

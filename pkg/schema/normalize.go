package schema

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
)

// Table 未归一的表格数据，来自CSV或Excel
type Table struct {
	Name    string // 来源文件名
	Headers []string
	Rows    [][]string
}

// Normalizer 表格归一器
type Normalizer struct {
	canonCity     func(string) string
	canonContract func(string) string
	caser         cases.Caser
}

// Option 归一器选项
type Option func(*Normalizer)

// WithCityCanonicalizer 设置城市规范化函数
func WithCityCanonicalizer(fn func(string) string) Option {
	return func(n *Normalizer) {
		n.canonCity = fn
	}
}

// WithContractCanonicalizer 设置合同规范化函数
func WithContractCanonicalizer(fn func(string) string) Option {
	return func(n *Normalizer) {
		n.canonContract = fn
	}
}

// NewNormalizer 创建归一器，默认只做空白剔除
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		canonCity:     strings.TrimSpace,
		canonContract: strings.TrimSpace,
		caser:         cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NormalizeEmployees 将花名册表格归一为Roster。
// 必填字段缺失时返回SCHEMA_INVALID，城市或合同缺失的行从文件名推断。
func (n *Normalizer) NormalizeEmployees(t Table) (*model.Roster, error) {
	mappings := InferMappings(t.Headers, EmployeeSpecs)
	if missing := MissingRequired(mappings, EmployeeRequired); len(missing) > 0 {
		return nil, errors.SchemaInvalid(t.Name, missing...)
	}

	fallback := n.FilenameStem(t.Name)
	employees := make([]model.Employee, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := CoerceID(cell(row, mappings[FieldEmployeeID]))
		if id == "" {
			continue
		}

		city := n.canonCity(cell(row, mappings[FieldCity]))
		if city == "" {
			city = fallback
		}
		contract := n.canonContract(cell(row, mappings[FieldContractName]))
		if contract == "" {
			contract = fallback
		}

		emp := model.Employee{
			ID:       id,
			Name:     strings.TrimSpace(cell(row, mappings[FieldEmployeeName])),
			Contract: contract,
			City:     city,
		}
		if idx, ok := mappings[FieldSupervisor]; ok {
			emp.Supervisor = strings.TrimSpace(cell(row, idx))
		}
		employees = append(employees, emp)
	}

	return model.NewRoster(employees), nil
}

// NormalizeShifts 将班次表格归一为班次记录。
// 必填字段缺失时返回SCHEMA_INVALID，计划日期解析失败的行保留并留空，
// 城市或合同缺失时从文件名推断。
func (n *Normalizer) NormalizeShifts(t Table) ([]model.ShiftRecord, error) {
	mappings := InferMappings(t.Headers, ShiftSpecs)
	if missing := MissingRequired(mappings, ShiftRequired); len(missing) > 0 {
		return nil, errors.SchemaInvalid(t.Name, missing...)
	}

	fallback := n.FilenameStem(t.Name)
	records := make([]model.ShiftRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := CoerceID(cell(row, mappings[FieldEmployeeID]))
		if id == "" {
			continue
		}

		rec := model.ShiftRecord{
			EmployeeID: id,
			Status:     model.ShiftStatus(strings.ToUpper(strings.TrimSpace(cell(row, mappings[FieldShiftStatus])))),
			SourceFile: t.Name,
		}

		if d, ok := ParseDate(cell(row, mappings[FieldPlannedStartDate])); ok {
			rec.PlannedStartDate = d
		}
		if idx, ok := mappings[FieldPlannedEndDate]; ok {
			if d, ok := ParseDate(cell(row, idx)); ok {
				rec.PlannedEndDate = d
			}
		}
		if idx, ok := mappings[FieldActualStartDate]; ok {
			if d, ok := ParseDate(cell(row, idx)); ok {
				rec.ActualStartDate = d
			}
		}
		if idx, ok := mappings[FieldPlannedStartTime]; ok {
			if c, ok := ParseClock(cell(row, idx)); ok {
				rec.PlannedStartTime = c
			}
		}
		if idx, ok := mappings[FieldPlannedEndTime]; ok {
			if c, ok := ParseClock(cell(row, idx)); ok {
				rec.PlannedEndTime = c
			}
		}
		if idx, ok := mappings[FieldContractName]; ok {
			rec.Contract = n.canonContract(cell(row, idx))
		}
		if rec.Contract == "" {
			rec.Contract = fallback
		}
		if idx, ok := mappings[FieldCity]; ok {
			rec.City = n.canonCity(cell(row, idx))
		}
		if rec.City == "" {
			rec.City = fallback
		}

		records = append(records, rec)
	}

	return records, nil
}

// FilenameStem 从文件名提取标题化的名称，用作城市或合同的兜底
func (n *Normalizer) FilenameStem(name string) string {
	stem := filepath.Base(name)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" {
		return ""
	}
	return n.caser.String(strings.ToLower(stem))
}

// CoerceID 将员工编号归一为字符串，剔除数值导出产生的小数尾巴
func CoerceID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimSuffix(id, ".0")
	return id
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

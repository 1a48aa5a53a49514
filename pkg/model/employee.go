// Package model 定义对账引擎的核心数据模型
package model

// Employee 花名册中的员工
type Employee struct {
	ID         string `json:"employee_id"`
	Name       string `json:"employee_name"`
	Contract   string `json:"contract_name"`
	City       string `json:"city"`
	Supervisor string `json:"supervisor,omitempty"`
}

// Roster 员工花名册（规范化后按ID去重，保留首次出现）
type Roster struct {
	Employees []Employee `json:"employees"`
	index     map[string]int
}

// NewRoster 创建花名册并建立ID索引
func NewRoster(employees []Employee) *Roster {
	r := &Roster{index: make(map[string]int, len(employees))}
	for _, e := range employees {
		if e.ID == "" {
			continue
		}
		if _, exists := r.index[e.ID]; exists {
			continue // 首次出现优先
		}
		r.index[e.ID] = len(r.Employees)
		r.Employees = append(r.Employees, e)
	}
	return r
}

// Len 返回员工数
func (r *Roster) Len() int {
	return len(r.Employees)
}

// Get 按ID查找员工
func (r *Roster) Get(id string) (Employee, bool) {
	idx, ok := r.index[id]
	if !ok {
		return Employee{}, false
	}
	return r.Employees[idx], true
}

// IDs 返回全部员工ID集合
func (r *Roster) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Employees))
	for _, e := range r.Employees {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// Contracts 返回去重后的合同名列表（按输入顺序）
func (r *Roster) Contracts() []string {
	seen := make(map[string]struct{})
	var contracts []string
	for _, e := range r.Employees {
		if e.Contract == "" {
			continue
		}
		if _, ok := seen[e.Contract]; ok {
			continue
		}
		seen[e.Contract] = struct{}{}
		contracts = append(contracts, e.Contract)
	}
	return contracts
}

// Cities 返回去重后的城市列表（按输入顺序）
func (r *Roster) Cities() []string {
	seen := make(map[string]struct{})
	var cities []string
	for _, e := range r.Employees {
		if e.City == "" {
			continue
		}
		if _, ok := seen[e.City]; ok {
			continue
		}
		seen[e.City] = struct{}{}
		cities = append(cities, e.City)
	}
	return cities
}

// FilterByContract 返回指定合同的员工子集
func (r *Roster) FilterByContract(contract string) []Employee {
	var out []Employee
	for _, e := range r.Employees {
		if e.Contract == contract {
			out = append(out, e)
		}
	}
	return out
}

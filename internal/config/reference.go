package config

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ReferenceData 对账参照数据：合同与城市的规范名、别名及有效组合
type ReferenceData struct {
	// 规范城市名及其展示顺序
	Cities []string `yaml:"cities"`
	// 城市别名，键为常见写法，值为规范名
	CityAliases map[string]string `yaml:"city_aliases"`
	// 合同别名，键按大写匹配
	ContractAliases map[string]string `yaml:"contract_aliases"`
	// 装备编号，出现在合同列中时不视为合同
	EquipmentTokens []string `yaml:"equipment_tokens"`
	// 合同到有效城市的映射
	ContractCities map[string][]string `yaml:"contract_cities"`
	// 计入排班的状态
	AssignmentStatuses []string `yaml:"assignment_statuses"`
}

// DefaultReferenceData 内置参照数据，参照文件缺失时使用
func DefaultReferenceData() *ReferenceData {
	return &ReferenceData{
		Cities: []string{
			"Cairo", "Giza", "Alexandria", "Mansoura", "Tanta",
			"Ismailia", "Port Said", "Suez", "Zagazig", "Damietta",
		},
		CityAliases: map[string]string{
			"Port said": "Port Said",
			"Portsaid":  "Port Said",
			"Ismalia":   "Ismailia",
		},
		ContractAliases: map[string]string{
			"TANTA":     "Tantawy",
			"TANTA CAR": "Tanta Car",
			"007":       "Zero Zero Seven",
		},
		EquipmentTokens: []string{"BC", "WLK"},
		ContractCities: map[string][]string{
			"Tantawy":         {"Tanta", "Mansoura", "Zagazig"},
			"Tanta Car":       {"Tanta"},
			"Zero Zero Seven": {"Cairo", "Giza"},
		},
		AssignmentStatuses: []string{"EVALUATED", "PUBLISHED"},
	}
}

// Reference 线程安全的参照数据视图，支持热加载
type Reference struct {
	mu    sync.RWMutex
	data  *ReferenceData
	caser cases.Caser
}

// NewReference 创建参照数据视图
func NewReference(data *ReferenceData) *Reference {
	if data == nil {
		data = DefaultReferenceData()
	}
	return &Reference{
		data:  data,
		caser: cases.Title(language.English),
	}
}

// LoadReference 从YAML文件加载参照数据，文件不存在时回退到内置数据
func LoadReference(path string) (*Reference, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewReference(nil), nil
		}
		return nil, err
	}

	data := DefaultReferenceData()
	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return NewReference(data), nil
}

// Reload 从文件重新加载参照数据
func (r *Reference) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data := DefaultReferenceData()
	if err := yaml.Unmarshal(raw, data); err != nil {
		return err
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
	return nil
}

// CanonicalCity 将城市写法归一为规范名
func (r *Reference) CanonicalCity(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	name = r.caser.String(strings.ToLower(name))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.data.CityAliases[name]; ok {
		return canonical
	}
	return name
}

// CanonicalContract 将合同写法归一为规范名；装备编号返回空串
func (r *Reference) CanonicalContract(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	upper := strings.ToUpper(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, token := range r.data.EquipmentTokens {
		if upper == token {
			return ""
		}
	}
	if canonical, ok := r.data.ContractAliases[upper]; ok {
		return canonical
	}
	return name
}

// IsValidContractCity 检查合同与城市组合是否有效；未登记的合同一律有效
func (r *Reference) IsValidContractCity(contract, city string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cities, ok := r.data.ContractCities[contract]
	if !ok {
		return true
	}
	for _, c := range cities {
		if c == city {
			return true
		}
	}
	return false
}

// CityOrder 返回城市的展示顺序
func (r *Reference) CityOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.data.Cities))
	copy(out, r.data.Cities)
	return out
}

// CityAliases 返回城市别名表的副本
func (r *Reference) CityAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.data.CityAliases))
	for k, v := range r.data.CityAliases {
		out[k] = v
	}
	return out
}

// ContractAliases 返回合同别名表的副本
func (r *Reference) ContractAliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.data.ContractAliases))
	for k, v := range r.data.ContractAliases {
		out[k] = v
	}
	return out
}

// AssignmentStatuses 返回计入排班的状态列表
func (r *Reference) AssignmentStatuses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.data.AssignmentStatuses))
	copy(out, r.data.AssignmentStatuses)
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalCity(t *testing.T) {
	ref := NewReference(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"规范名原样返回", "Cairo", "Cairo"},
		{"大小写归一", "cairo", "Cairo"},
		{"全大写归一", "TANTA", "Tanta"},
		{"别名映射", "Portsaid", "Port Said"},
		{"带空格别名", "port said", "Port Said"},
		{"拼写别名", "Ismalia", "Ismailia"},
		{"两端空白剔除", "  Giza  ", "Giza"},
		{"空串", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ref.CanonicalCity(tt.raw); got != tt.want {
				t.Errorf("CanonicalCity(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalContract(t *testing.T) {
	ref := NewReference(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"别名映射", "TANTA", "Tantawy"},
		{"小写别名", "tanta", "Tantawy"},
		{"复合别名", "Tanta Car", "Tanta Car"},
		{"数字别名", "007", "Zero Zero Seven"},
		{"装备编号不是合同", "BC", ""},
		{"装备编号小写", "wlk", ""},
		{"未登记合同原样返回", "Delta Riders", "Delta Riders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ref.CanonicalContract(tt.raw); got != tt.want {
				t.Errorf("CanonicalContract(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsValidContractCity(t *testing.T) {
	ref := NewReference(nil)

	if !ref.IsValidContractCity("Tantawy", "Tanta") {
		t.Error("Tantawy×Tanta 应为有效组合")
	}
	if ref.IsValidContractCity("Tantawy", "Cairo") {
		t.Error("Tantawy×Cairo 应为无效组合")
	}
	if !ref.IsValidContractCity("Unknown Contract", "Anywhere") {
		t.Error("未登记合同应一律有效")
	}
}

func TestLoadReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yaml")

	content := `
cities: ["Cairo", "Luxor"]
city_aliases:
  Luxxor: Luxor
contract_cities:
  Nile: ["Luxor"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ref, err := LoadReference(path)
	if err != nil {
		t.Fatalf("LoadReference() error = %v", err)
	}

	order := ref.CityOrder()
	if len(order) != 2 || order[1] != "Luxor" {
		t.Errorf("CityOrder() = %v, want [Cairo Luxor]", order)
	}
	if got := ref.CanonicalCity("Luxxor"); got != "Luxor" {
		t.Errorf("CanonicalCity(Luxxor) = %q, want Luxor", got)
	}
	if ref.IsValidContractCity("Nile", "Cairo") {
		t.Error("Nile×Cairo 应为无效组合")
	}
	// 文件中未覆盖的字段保留内置值
	if got := ref.CanonicalContract("TANTA"); got != "Tantawy" {
		t.Errorf("CanonicalContract(TANTA) = %q, want Tantawy", got)
	}
}

func TestLoadReferenceMissingFile(t *testing.T) {
	ref, err := LoadReference(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("缺失文件应回退到内置数据, got error %v", err)
	}
	if got := ref.CanonicalCity("Portsaid"); got != "Port Said" {
		t.Errorf("CanonicalCity(Portsaid) = %q, want Port Said", got)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yaml")
	if err := os.WriteFile(path, []byte("cities: [\"Aswan\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ref := NewReference(nil)
	if err := ref.Reload(path); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	order := ref.CityOrder()
	if len(order) != 1 || order[0] != "Aswan" {
		t.Errorf("CityOrder() = %v, want [Aswan]", order)
	}
}

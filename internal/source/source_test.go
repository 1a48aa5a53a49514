package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riderops/riderops/pkg/schema"
)

func TestReadCSV(t *testing.T) {
	input := "Employee ID,Name,Contract,City\n1001,Ahmed,Tantawy,Tanta\n1002,Omar,Tantawy\n"
	table, err := ReadCSV("roster.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(table.Headers) != 4 {
		t.Errorf("Headers = %v", table.Headers)
	}
	// 列数不齐的行也要保留
	if len(table.Rows) != 2 || len(table.Rows[1]) != 3 {
		t.Errorf("Rows = %v", table.Rows)
	}
}

func TestReadCSVWithBOM(t *testing.T) {
	input := "\xEF\xBB\xBFEmployee ID,Name\n1001,Ahmed\n"
	table, err := ReadCSV("bom.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if table.Headers[0] != "Employee ID" {
		t.Errorf("BOM应被剔除, Headers[0] = %q", table.Headers[0])
	}
}

func TestReadCSVEmpty(t *testing.T) {
	table, err := ReadCSV("empty.csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("空文件不应报错: %v", err)
	}
	if len(table.Headers) != 0 || len(table.Rows) != 0 {
		t.Errorf("空文件应产出空表: %+v", table)
	}
}

func TestReadTableDispatch(t *testing.T) {
	// 未知扩展名按CSV处理
	table, err := ReadTable("data.txt", strings.NewReader("ID\n1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if table.Headers[0] != "ID" {
		t.Errorf("Headers = %v", table.Headers)
	}
}

func TestHTTPRosterFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Employee ID,Name,Contract,City\n1001,Ahmed,Tantawy,Tanta\n"))
	}))
	defer srv.Close()

	f := NewHTTPRosterFetcher(srv.URL+"/roster.csv", schema.NewNormalizer())
	roster, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if roster.Len() != 1 {
		t.Errorf("Len() = %d, want 1", roster.Len())
	}
	emp, _ := roster.Get("1001")
	if emp.Name != "Ahmed" || emp.City != "Tanta" {
		t.Errorf("员工数据错误: %+v", emp)
	}
}

func TestHTTPRosterFetcherError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPRosterFetcher(srv.URL, schema.NewNormalizer())
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("非200响应应返回错误")
	}
}

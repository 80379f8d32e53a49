package report

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"medpulse/internal/analysis"
	"medpulse/internal/dataset"
)

// pumlTemplate mirrors the summary diagram layout the spreadsheets'
// consumers already render: the dataset model, key insights and the
// top performers with their values in side notes.
const pumlTemplate = `@startuml {{.Ident}}

!define RECTANGLE class

title {{.Title}} - Data Model and Relationships

package "Dataset" {
    RECTANGLE Record {
{{- range .Fields}}
        + {{.Name}}: {{.Type}}
{{- end}}
    }
}

package "Key Insights" {
    RECTANGLE Overview {
{{- range .Overview}}
        + {{.Name}}: {{.Value}}
{{- end}}
    }
{{- if .TopFactors}}

    RECTANGLE Top_Factors {
{{- range $i, $f := .TopFactors}}
        + Factor {{inc $i}}: {{$f.Name}}
{{- end}}
    }
{{- end}}
{{- range .TopGroups}}

    RECTANGLE Top_{{.Ident}} {
{{- range $i, $r := .Rows}}
        + {{$.Noun}} {{inc $i}}: {{$r.Key}}
{{- end}}
    }
{{- end}}

    RECTANGLE Statistical_Significance {
        + Significant Tests: {{.Significant}}
        + Total Tests Run: {{.TotalTests}}
    }
}

' Relationships
Record ||--|| Overview : "summarized by"
{{- if .TopFactors}}
Record ||--|| Top_Factors : "driven by"
{{- end}}
{{- range .TopGroups}}
Record ||--|| Top_{{.Ident}} : "grouped by"
{{- end}}
Record ||--|| Statistical_Significance : "tested by"
{{- if .TopFactors}}

note right of Top_Factors
  Correlation with outcome:
{{- range .TopFactors}}
  {{.Name}}: {{printf "%.3f" .R}}
{{- end}}
end note
{{- end}}
{{- range .TopGroups}}

note right of Top_{{.Ident}}
  Top by {{.Header}}:
{{- range .Rows}}
  {{.Key}}: {{printf "%.0f" .Value}}
{{- end}}
end note
{{- end}}

@enduml
`

type pumlField struct {
	Name string
	Type string
}

type pumlGroupRow struct {
	Key   string
	Value float64
}

type pumlGroup struct {
	Ident  string
	Header string
	Rows   []pumlGroupRow
}

type pumlFactor struct {
	Name string
	R    float64
}

type pumlData struct {
	Ident       string
	Title       string
	Noun        string
	Fields      []pumlField
	Overview    []analysis.KV
	TopFactors  []pumlFactor
	TopGroups   []pumlGroup
	Significant int
	TotalTests  int
}

func writePuml(res *analysis.Result, path string) error {
	tmpl, err := template.New("puml").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		Parse(pumlTemplate)
	if err != nil {
		return err
	}

	data, err := buildPumlData(res)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func buildPumlData(res *analysis.Result) (*pumlData, error) {
	p := res.Profile
	data := &pumlData{
		Ident:      strings.ReplaceAll(p.Title, " ", "_"),
		Title:      p.Title,
		Noun:       "Group",
		Overview:   res.Extras,
		TotalTests: len(res.Factors) + len(res.Tests),
	}
	if len(data.Overview) > 6 {
		data.Overview = data.Overview[:6]
	}
	for _, f := range res.Factors {
		if f.Test.Significant {
			data.Significant++
		}
	}
	for _, t := range res.Tests {
		if t.Test.Significant {
			data.Significant++
		}
	}

	for _, c := range res.Frame.Columns() {
		kind, _ := res.Frame.Kind(c)
		data.Fields = append(data.Fields, pumlField{Name: c, Type: umlType(kind)})
	}

	for i, c := range res.OutcomeCorrelations {
		if i == 5 {
			break
		}
		data.TopFactors = append(data.TopFactors, pumlFactor{Name: c.Column, R: c.R})
	}

	// The first two single-dimension groupings carry the headline
	// "top performers" blocks.
	for _, table := range res.Tables {
		if len(data.TopGroups) == 2 {
			break
		}
		if len(table.Dims) != 1 {
			continue
		}
		g := pumlGroup{
			Ident:  titleIdent(table.Dims[0]),
			Header: table.Headers[0],
		}
		for i, r := range table.Rows {
			if i == 5 {
				break
			}
			g.Rows = append(g.Rows, pumlGroupRow{Key: r.Key, Value: r.Cells[0]})
		}
		if len(g.Rows) > 0 {
			data.TopGroups = append(data.TopGroups, g)
		}
	}
	return data, nil
}

// titleIdent turns a dimension name like "payment_method" into the
// diagram identifier "Payment_Method".
func titleIdent(dim string) string {
	parts := strings.Split(strings.ReplaceAll(dim, " ", "_"), "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, "_")
}

func umlType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt:
		return "Integer"
	case dataset.KindFloat:
		return "Float"
	case dataset.KindDate:
		return "Date"
	case dataset.KindBinary:
		return "Boolean"
	case dataset.KindString:
		return "String"
	}
	return fmt.Sprintf("Unknown(%s)", kind)
}

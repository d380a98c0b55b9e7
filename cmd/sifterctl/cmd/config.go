package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/typhoonworks/sifter/config"
	"github.com/typhoonworks/sifter/schema"
	"github.com/typhoonworks/sifter/value"
)

// yamlAssoc is one association entry in the YAML schema document.
type yamlAssoc struct {
	Kind          string `yaml:"kind"`
	Related       string `yaml:"related"`
	OwnerKey      string `yaml:"owner_key"`
	RelatedKey    string `yaml:"related_key"`
	JoinTable     string `yaml:"join_table"`
	JoinOwnerFK   string `yaml:"join_owner_fk"`
	JoinRelatedFK string `yaml:"join_related_fk"`
}

// yamlTable is one schema's field/type/association/primary-key
// declaration in the YAML document.
type yamlTable struct {
	Table        string               `yaml:"table"`
	PrimaryKey   string               `yaml:"primary_key"`
	Fields       map[string]string    `yaml:"fields"`
	Associations map[string]yamlAssoc `yaml:"associations"`
}

// yamlAllowEntry mirrors config.AllowListEntry for YAML unmarshaling.
type yamlAllowEntry struct {
	As    string `yaml:"as"`
	Field string `yaml:"field"`
}

// Document is the top-level shape of the file --config points at: the
// schema/type registry sifterctl needs to stand in for a host
// application's own schema.View, plus the allow-list and policy knobs
// normally supplied by that host application's per-call Options.
type Document struct {
	Schema        string               `yaml:"schema"`
	Tables        map[string]yamlTable `yaml:"tables"`
	AllowAll      bool                 `yaml:"allow_all"`
	AllowedFields []yamlAllowEntry     `yaml:"allowed_fields"`
	Mode          string               `yaml:"mode"`
	SearchFields  []string             `yaml:"search_fields"`
}

// LoadDocument reads and parses the YAML document at configPath the
// way the teacher's LoadConfig reads sqlcode.yaml.
func LoadDocument(path string) (Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Document{}, fmt.Errorf("no %s found", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// yamlSchemaView adapts a parsed Document into a schema.View.
type yamlSchemaView struct {
	tables map[string]yamlTable
}

func (v yamlSchemaView) Fields(s string) map[string]bool {
	t, ok := v.tables[s]
	if !ok {
		return nil
	}
	out := make(map[string]bool, len(t.Fields))
	for f := range t.Fields {
		out[f] = true
	}
	return out
}

func (v yamlSchemaView) Type(s, f string) (value.Type, bool) {
	t, ok := v.tables[s]
	if !ok {
		return value.Type{}, false
	}
	kindName, ok := t.Fields[f]
	if !ok {
		return value.Type{}, false
	}
	return parseKind(kindName)
}

func (v yamlSchemaView) PrimaryKey(s string) string {
	return v.tables[s].PrimaryKey
}

func (v yamlSchemaView) Association(s, name string) (schema.Assoc, bool) {
	t, ok := v.tables[s]
	if !ok {
		return schema.Assoc{}, false
	}
	a, ok := t.Associations[name]
	if !ok {
		return schema.Assoc{}, false
	}
	kind, ok := parseAssocKind(a.Kind)
	if !ok {
		return schema.Assoc{}, false
	}
	return schema.Assoc{
		Kind:          kind,
		Related:       a.Related,
		OwnerKey:      a.OwnerKey,
		RelatedKey:    a.RelatedKey,
		JoinTable:     a.JoinTable,
		JoinOwnerFK:   a.JoinOwnerFK,
		JoinRelatedFK: a.JoinRelatedFK,
	}, true
}

func (v yamlSchemaView) TableName(s string) string {
	if t, ok := v.tables[s]; ok && t.Table != "" {
		return t.Table
	}
	return s
}

func parseKind(name string) (value.Type, bool) {
	if len(name) > 6 && name[:6] == "array(" && name[len(name)-1] == ')' {
		inner, ok := parseKind(name[6 : len(name)-1])
		if !ok {
			return value.Type{}, false
		}
		return value.Array(inner), true
	}
	switch name {
	case "string":
		return value.Type{Kind: value.KString}, true
	case "text":
		return value.Type{Kind: value.KText}, true
	case "integer":
		return value.Type{Kind: value.KInteger}, true
	case "bool":
		return value.Type{Kind: value.KBool}, true
	case "decimal":
		return value.Type{Kind: value.KDecimal}, true
	case "date":
		return value.Type{Kind: value.KDate}, true
	case "utc_datetime":
		return value.Type{Kind: value.KUtcDateTime}, true
	case "naive_datetime":
		return value.Type{Kind: value.KNaiveDateTime}, true
	case "naive_datetime_usec":
		return value.Type{Kind: value.KNaiveDateTimeMicro}, true
	case "uuid":
		return value.Type{Kind: value.KUuid}, true
	default:
		return value.Type{}, false
	}
}

func parseAssocKind(name string) (schema.AssocKind, bool) {
	switch name {
	case "belongs_to":
		return schema.BelongsTo, true
	case "has_one":
		return schema.HasOne, true
	case "has_many":
		return schema.HasMany, true
	case "many_to_many":
		return schema.ManyToMany, true
	default:
		return 0, false
	}
}

// Options builds a config.Options from the document, including its
// policy mode, the way the host application would assemble its own.
func (d Document) Options() config.Options {
	mode := config.Lenient
	if d.Mode == "strict" {
		mode = config.Strict
	}
	opts := config.NewOptions(mode)
	opts.Schema = d.Schema
	opts.AllowAll = d.AllowAll
	opts.SearchFields = d.SearchFields
	for _, e := range d.AllowedFields {
		opts.AllowedFields = append(opts.AllowedFields, config.AllowListEntry{As: e.As, Field: e.Field})
	}
	return opts
}

func (d Document) View() schema.View {
	return yamlSchemaView{tables: d.Tables}
}

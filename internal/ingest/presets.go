package ingest

// Built-in column presets. These are immutable templates seeded at startup;
// users pick one and the indices bind positionally against the actual grid.
var builtinPresets = []Preset{
	{
		ID:          "common",
		Name:        "Common Translation",
		Description: "Source and target columns with context",
		Category:    "common",
		IsBuiltIn:   true,
		Mappings: []ColumnMapping{
			{ColumnName: "Source", Role: RoleSource, LanguageCode: "en", IsRequired: true},
			{ColumnName: "Target", Role: RoleTarget, LanguageCode: "es", IsRequired: true},
			{ColumnName: "Context", Role: RoleContext},
		},
	},
	{
		ID:          "translation_memory",
		Name:        "Translation Memory",
		Description: "TMX-like format with keys",
		Category:    "translation_memory",
		IsBuiltIn:   true,
		Mappings: []ColumnMapping{
			{ColumnName: "Key", Role: RoleKey, IsRequired: true},
			{ColumnName: "Source", Role: RoleSource, LanguageCode: "en", IsRequired: true},
			{ColumnName: "Target", Role: RoleTarget, LanguageCode: "es", IsRequired: true},
			{ColumnName: "Context", Role: RoleContext},
		},
	},
	{
		ID:          "glossary",
		Name:        "Glossary",
		Description: "Term and definition format",
		Category:    "glossary",
		IsBuiltIn:   true,
		Mappings: []ColumnMapping{
			{ColumnName: "Term", Role: RoleSource, LanguageCode: "en", IsRequired: true},
			{ColumnName: "Definition", Role: RoleContext, IsRequired: true},
			{ColumnName: "Translation", Role: RoleTarget, LanguageCode: "es"},
		},
	},
}

// Presets returns the built-in preset list in a fixed order. The result is a
// copy; callers cannot mutate the built-ins.
func Presets() []Preset {
	out := make([]Preset, len(builtinPresets))
	for i, p := range builtinPresets {
		cp := p
		cp.Mappings = append([]ColumnMapping(nil), p.Mappings...)
		out[i] = cp
	}
	return out
}

// PresetByID looks up a built-in preset.
func PresetByID(id string) (Preset, bool) {
	for _, p := range Presets() {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ApplyPreset binds a preset's mappings to a concrete grid by assigning
// column indices positionally (0, 1, 2, ... in preset order), regardless of
// the grid's header text. Mappings beyond the grid's column count are
// dropped.
func ApplyPreset(preset Preset, columnCount int) []ColumnMapping {
	var mappings []ColumnMapping
	for i, m := range preset.Mappings {
		if i >= columnCount {
			break
		}
		m.ColumnIndex = i
		mappings = append(mappings, m)
	}
	return mappings
}

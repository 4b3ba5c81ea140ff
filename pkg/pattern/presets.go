package pattern

import "sort"

// Presets are the named patterns shipped with the firmware.
var Presets = map[string]string{
	// SOS in morse with one symbol per time unit.
	"sos":    "=.=.=...===.===.===...=.=.=........",
	"blink":  "=.",
	"steady": "=",
}

// DefaultPreset is used when nothing is configured.
const DefaultPreset = "sos"

// Lookup resolves a preset name or parses a literal.
func Lookup(nameOrLiteral string) (Pattern, error) {
	if literal, ok := Presets[nameOrLiteral]; ok {
		return Parse(literal)
	}
	return Parse(nameOrLiteral)
}

// PresetNames lists preset names in order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

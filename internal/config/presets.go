package config

import "sort"

var Presets = map[string]map[string]*Config{
	"Aether": {
		"line": {
			Rule: "Aether", Dim: 1, Initial: 1000, UntilStable: true,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
		},
		"plane": {
			Rule: "Aether", Dim: 2, Initial: 100000, UntilStable: true,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
		},
		"cube": {
			Rule: "Aether", Dim: 3, Initial: 1000000, Steps: 5000,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
		},
		"torus": {
			Rule: "Aether", Dim: 2, Initial: 5000, EnclosedSide: 31, Steps: 2000,
			TrackToppling: true, LogEvery: DefaultLogEvery,
		},
	},
	"SpreadIntegerValue": {
		"small": {
			Rule: "SpreadIntegerValue", Dim: 2, Initial: 32, UntilStable: true,
			LogEvery: 1,
		},
		"background": {
			Rule: "SpreadIntegerValue", Dim: 2, Initial: 640, Background: 1, UntilStable: true,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
		},
		"deep": {
			Rule: "SpreadIntegerValue", Dim: 4, Initial: 100000, UntilStable: true,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
			Paging: PagingConfig{Backing: "file", Budget: DefaultPageBudget},
		},
	},
	"AbelianSandpile": {
		"pile": {
			Rule: "AbelianSandpile", Dim: 2, Initial: 10000, UntilStable: true,
			BackupEvery: DefaultBackupEvery, LogEvery: DefaultLogEvery,
		},
		"identity": {
			Rule: "AbelianSandpile", Dim: 2, Initial: 6, EnclosedSide: 9, UntilStable: true,
			LogEvery: 1,
		},
	},
	"NearAether1": {
		"plane": {
			Rule: "NearAether1", Dim: 2, Initial: 10000, UntilStable: true,
			TrackToppling: true, LogEvery: DefaultLogEvery,
		},
	},
	"NearAether2": {
		"plane": {
			Rule: "NearAether2", Dim: 2, Initial: 10000, UntilStable: true,
			TrackToppling: true, LogEvery: DefaultLogEvery,
		},
	},
	"NearAether3": {
		"plane": {
			Rule: "NearAether3", Dim: 2, Initial: 10000, UntilStable: true,
			TrackToppling: true, LogEvery: DefaultLogEvery,
		},
	},
}

// GetPreset returns a copy of a named preset, or nil.
func GetPreset(rule, preset string) *Config {
	rulePresets, ok := Presets[rule]
	if !ok {
		return nil
	}
	cfg, ok := rulePresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(rule string) []string {
	rulePresets, ok := Presets[rule]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rulePresets))
	for name := range rulePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

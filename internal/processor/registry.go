package processor

// IgnoreCharacterSettings enables and configures the ignore_character
// processor.
type IgnoreCharacterSettings struct {
	Enabled          bool `yaml:"enabled" json:"enabled"`
	Weight           int  `yaml:"weight" json:"weight"`
	NormalizerConfig `yaml:",inline"`
}

// RoleFilterSettings enables and configures the role_filter processor.
type RoleFilterSettings struct {
	Enabled          bool `yaml:"enabled" json:"enabled"`
	Weight           int  `yaml:"weight" json:"weight"`
	RoleFilterConfig `yaml:",inline"`
}

// AggregatedFieldSettings enables and configures the aggregated_field
// processor.
type AggregatedFieldSettings struct {
	Enabled          bool `yaml:"enabled" json:"enabled"`
	Weight           int  `yaml:"weight" json:"weight"`
	AggregatorConfig `yaml:",inline"`
}

// Settings holds the configuration of every processor.
type Settings struct {
	IgnoreCharacter IgnoreCharacterSettings `yaml:"ignore_character" json:"ignore_character"`
	RoleFilter      RoleFilterSettings      `yaml:"role_filter" json:"role_filter"`
	AggregatedField AggregatedFieldSettings `yaml:"aggregated_field" json:"aggregated_field"`
}

// DefaultSettings enables ignore_character with its stock configuration
// and leaves the other processors disabled.
func DefaultSettings() Settings {
	return Settings{
		IgnoreCharacter: IgnoreCharacterSettings{
			Enabled:          true,
			Weight:           DefaultIgnoreCharacterWeight,
			NormalizerConfig: DefaultNormalizerConfig(),
		},
		RoleFilter: RoleFilterSettings{
			Weight:           DefaultRoleFilterWeight,
			RoleFilterConfig: DefaultRoleFilterConfig(),
		},
		AggregatedField: AggregatedFieldSettings{
			Weight: DefaultAggregatedFieldWeight,
		},
	}
}

// Validate checks the configuration of every enabled processor.
// datasources, when known, lets the role filter check that the index
// contains users.
func Validate(s Settings, datasources []string) ValidationErrors {
	var errs ValidationErrors
	if s.IgnoreCharacter.Enabled {
		errs = append(errs, ValidateNormalizerConfig(s.IgnoreCharacter.NormalizerConfig)...)
	}
	if s.RoleFilter.Enabled {
		errs = append(errs, ValidateRoleFilterConfig(s.RoleFilter.RoleFilterConfig, datasources)...)
	}
	if s.AggregatedField.Enabled {
		errs = append(errs, ValidateAggregatorConfig(s.AggregatedField.AggregatorConfig)...)
	}
	return errs
}

// Build validates the settings and creates the enabled processors.
func Build(s Settings, datasources []string) ([]Processor, error) {
	if err := Validate(s, datasources).Err(); err != nil {
		return nil, err
	}

	var procs []Processor
	if s.RoleFilter.Enabled {
		procs = append(procs, NewRoleFilter(s.RoleFilter.RoleFilterConfig, s.RoleFilter.Weight))
	}
	if s.AggregatedField.Enabled {
		procs = append(procs, NewAggregator(s.AggregatedField.AggregatorConfig, s.AggregatedField.Weight))
	}
	if s.IgnoreCharacter.Enabled {
		procs = append(procs, NewNormalizer(s.IgnoreCharacter.NormalizerConfig, s.IgnoreCharacter.Weight))
	}
	return procs, nil
}

// State reports whether the processor id is enabled and its weight.
// Unknown ids report false and 0.
func (s Settings) State(id string) (enabled bool, weight int) {
	switch id {
	case IDIgnoreCharacter:
		return s.IgnoreCharacter.Enabled, s.IgnoreCharacter.Weight
	case IDRoleFilter:
		return s.RoleFilter.Enabled, s.RoleFilter.Weight
	case IDAggregatedField:
		return s.AggregatedField.Enabled, s.AggregatedField.Weight
	}
	return false, 0
}

// Find returns the processor with the given id.
func Find(procs []Processor, id string) (Processor, bool) {
	for _, p := range procs {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

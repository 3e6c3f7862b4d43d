package resume

// StyleConfig 是所有模板共用的视觉参数。
type StyleConfig struct {
	Colors       Colors  `json:"colors"`
	Fonts        Fonts   `json:"fonts"`
	Spacing      float64 `json:"spacing" validate:"gte=0,lte=96"`
	BorderRadius float64 `json:"borderRadius" validate:"gte=0,lte=96"`
	ShowPhoto    bool    `json:"showPhoto"`
}

// Colors holds CSS color strings.
type Colors struct {
	Primary    string `json:"primary" validate:"omitempty,csscolor"`
	Secondary  string `json:"secondary" validate:"omitempty,csscolor"`
	Background string `json:"background" validate:"omitempty,csscolor"`
	Text       string `json:"text" validate:"omitempty,csscolor"`
	Accent     string `json:"accent" validate:"omitempty,csscolor"`
}

// Fonts holds font family names.
type Fonts struct {
	Heading string `json:"heading" validate:"omitempty,fontfamily"`
	Body    string `json:"body" validate:"omitempty,fontfamily"`
}

// DefaultStyle 返回新简历使用的默认样式。
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Colors: Colors{
			Primary:    "#1f2937",
			Secondary:  "#4b5563",
			Background: "#ffffff",
			Text:       "#111827",
			Accent:     "#2563eb",
		},
		Fonts: Fonts{
			Heading: "Inter, sans-serif",
			Body:    "Inter, sans-serif",
		},
		Spacing:      24,
		BorderRadius: 8,
		ShowPhoto:    false,
	}
}

// WithDefaults fills zero-valued colors, fonts and spacing from DefaultStyle.
// ShowPhoto and BorderRadius are kept as given since false/0 are meaningful.
func (s StyleConfig) WithDefaults() StyleConfig {
	d := DefaultStyle()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.Colors.Primary, d.Colors.Primary)
	fill(&s.Colors.Secondary, d.Colors.Secondary)
	fill(&s.Colors.Background, d.Colors.Background)
	fill(&s.Colors.Text, d.Colors.Text)
	fill(&s.Colors.Accent, d.Colors.Accent)
	fill(&s.Fonts.Heading, d.Fonts.Heading)
	fill(&s.Fonts.Body, d.Fonts.Body)
	if s.Spacing <= 0 {
		s.Spacing = d.Spacing
	}
	if s.BorderRadius < 0 {
		s.BorderRadius = 0
	}
	return s
}

// SectionGap is the vertical gap between sections, in pixels.
func (s StyleConfig) SectionGap() float64 { return s.Spacing }

// SubGap is the gap between entries inside a section, in pixels.
func (s StyleConfig) SubGap() float64 { return s.Spacing / 1.5 }

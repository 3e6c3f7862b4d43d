package render

import (
	"html/template"
	"strconv"
	"strings"

	"resumeStudio/internal/resume"
)

// placeholderPhoto is shown in the photo slot when showPhoto is on but no photo was provided.
const placeholderPhoto = "data:image/svg+xml;base64," +
	"PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAxMjAgMTIwIj48cmVjdCB3aWR0aD0iMTIwIiBoZWlnaHQ9IjEyMCIgZmlsbD0iI2Q1ZDhkYyIvPjxjaXJjbGUgY3g9IjYwIiBjeT0iNDYiIHI9IjIyIiBmaWxsPSIjOWNhM2FmIi8+PHBhdGggZD0iTTIwIDExMGM2LTI2IDIyLTM4IDQwLTM4czM0IDEyIDQwIDM4eiIgZmlsbD0iIzljYTNhZiIvPjwvc3ZnPg=="

// PlaceholderOpacity is applied to the placeholder photo.
const PlaceholderOpacity = 0.65

// Section keys reported in Document.Sections.
const (
	SectionHeader     = "header"
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
	customPrefix      = "custom:"
)

type view struct {
	TemplateID resume.TemplateID
	FullName   string
	Initials   string
	Contacts   []string
	Summary    string

	Experience []experienceView
	Education  []educationView
	Skills     []string
	Custom     []customView

	ShowPhoto          bool
	Photo              template.URL
	PhotoIsPlaceholder bool
	PlaceholderOpacity float64

	StyleVars template.CSS
}

type experienceView struct {
	Position    string
	Company     string
	Dates       string
	Description string
}

type educationView struct {
	School  string
	Degree  string
	Field   string
	Date    string
	GPA     string
	Heading string
}

type customView struct {
	ID     string
	Title  string
	IsList bool
	Items  []string
	Text   string
}

func buildView(id resume.TemplateID, doc resume.Document, style resume.StyleConfig) view {
	v := view{
		TemplateID:         id,
		FullName:           doc.Personal.FullName(),
		Initials:           initials(doc.Personal),
		Summary:            strings.TrimSpace(doc.Personal.Summary),
		ShowPhoto:          style.ShowPhoto,
		PlaceholderOpacity: PlaceholderOpacity,
		StyleVars:          styleVars(style),
	}

	for _, c := range []string{doc.Personal.Email, doc.Personal.Phone, doc.Personal.Location} {
		if c = strings.TrimSpace(c); c != "" {
			v.Contacts = append(v.Contacts, c)
		}
	}

	for _, e := range doc.Experience {
		v.Experience = append(v.Experience, experienceView{
			Position:    strings.TrimSpace(e.Position),
			Company:     strings.TrimSpace(e.Company),
			Dates:       resume.DateRange(e.StartDate, e.EndDate, e.Current),
			Description: strings.TrimSpace(e.Description),
		})
	}

	for _, e := range doc.Education {
		ev := educationView{
			School: strings.TrimSpace(e.School),
			Degree: strings.TrimSpace(e.Degree),
			Field:  strings.TrimSpace(e.Field),
			Date:   resume.FormatDate(strings.TrimSpace(e.GraduationDate)),
			GPA:    strings.TrimSpace(e.GPA),
		}
		switch {
		case ev.Degree != "" && ev.Field != "":
			ev.Heading = ev.Degree + " in " + ev.Field
		case ev.Degree != "":
			ev.Heading = ev.Degree
		default:
			ev.Heading = ev.Field
		}
		v.Education = append(v.Education, ev)
	}

	for _, s := range doc.Skills {
		if s = strings.TrimSpace(s); s != "" {
			v.Skills = append(v.Skills, s)
		}
	}

	for _, s := range doc.CustomSections {
		if s.IsEmpty() {
			continue
		}
		cv := customView{ID: s.ID, Title: strings.TrimSpace(s.Title)}
		if s.Type == resume.SectionList {
			cv.IsList = true
			cv.Items = s.ListItems()
		} else {
			cv.Text = strings.TrimSpace(s.Content)
		}
		v.Custom = append(v.Custom, cv)
	}

	if v.ShowPhoto {
		if photo, ok := photoURL(doc.Personal.Photo); ok {
			v.Photo = photo
		} else {
			v.Photo = template.URL(placeholderPhoto)
			v.PhotoIsPlaceholder = true
		}
	}

	return v
}

func (v view) sections() []string {
	sections := []string{SectionHeader}
	if v.Summary != "" {
		sections = append(sections, SectionSummary)
	}
	if len(v.Experience) > 0 {
		sections = append(sections, SectionExperience)
	}
	if len(v.Education) > 0 {
		sections = append(sections, SectionEducation)
	}
	if len(v.Skills) > 0 {
		sections = append(sections, SectionSkills)
	}
	for _, c := range v.Custom {
		sections = append(sections, customPrefix+c.ID)
	}
	return sections
}

// photoURL accepts only absolute http(s) URLs and inline image data URIs.
// Anything else (e.g. an unresolved object key) falls back to the placeholder.
func photoURL(raw string) (template.URL, bool) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return "", false
	case strings.HasPrefix(lower, "data:image/"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "http://"):
		if strings.ContainsAny(raw, "\"'<> \n") {
			return "", false
		}
		return template.URL(raw), true
	default:
		return "", false
	}
}

func initials(p resume.Personal) string {
	var b strings.Builder
	for _, part := range []string{p.FirstName, p.LastName} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// styleVars turns StyleConfig into CSS custom properties. Values that would not be
// safe inside a style element fall back to the defaults.
func styleVars(style resume.StyleConfig) template.CSS {
	style = style.WithDefaults()
	def := resume.DefaultStyle()

	color := func(v, fallback string) string {
		if resume.IsCSSColor(v) {
			return strings.TrimSpace(v)
		}
		return fallback
	}
	font := func(v, fallback string) string {
		if resume.IsFontFamily(v) {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	vars := [][2]string{
		{"--color-primary", color(style.Colors.Primary, def.Colors.Primary)},
		{"--color-secondary", color(style.Colors.Secondary, def.Colors.Secondary)},
		{"--color-background", color(style.Colors.Background, def.Colors.Background)},
		{"--color-text", color(style.Colors.Text, def.Colors.Text)},
		{"--color-accent", color(style.Colors.Accent, def.Colors.Accent)},
		{"--font-heading", font(style.Fonts.Heading, def.Fonts.Heading)},
		{"--font-body", font(style.Fonts.Body, def.Fonts.Body)},
		{"--spacing", px(style.SectionGap())},
		{"--sub-gap", px(style.SubGap())},
		{"--radius", px(style.BorderRadius)},
	}

	var b strings.Builder
	b.WriteString(":root {")
	for _, kv := range vars {
		b.WriteString(" ")
		b.WriteString(kv[0])
		b.WriteString(": ")
		b.WriteString(kv[1])
		b.WriteString(";")
	}
	b.WriteString(" }")
	return template.CSS(b.String())
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

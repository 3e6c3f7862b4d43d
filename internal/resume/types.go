package resume

import "strings"

// Document 表示存储在简历 Content(JSONB) 中的结构化数据，由前端多步表单逐步填写。
type Document struct {
	Personal       Personal        `json:"personal"`
	Experience     []Experience    `json:"experience" validate:"dive"`
	Education      []Education     `json:"education" validate:"dive"`
	Skills         []string        `json:"skills" validate:"dive,max=100"`
	CustomSections []CustomSection `json:"customSections" validate:"dive"`
}

// Personal 描述个人信息；Photo 可以是 URL、data URI 或用户资产的对象 Key。
type Personal struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=40"`
	Location  string `json:"location" validate:"max=200"`
	Summary   string `json:"summary" validate:"max=5000"`
	Photo     string `json:"photo,omitempty"`
}

// FullName 拼接名与姓，忽略空白部分。
func (p Personal) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(p.FirstName+" "+p.LastName), " "))
}

// Experience 表示一段工作经历。Current 为 true 时 EndDate 被忽略。
type Experience struct {
	Company     string `json:"company" validate:"max=200"`
	Position    string `json:"position" validate:"max=200"`
	StartDate   string `json:"startDate" validate:"omitempty,resumedate"`
	EndDate     string `json:"endDate" validate:"omitempty,resumedate"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"max=5000"`
}

// Education 表示一段教育经历。
type Education struct {
	School         string `json:"school" validate:"max=200"`
	Degree         string `json:"degree" validate:"max=200"`
	Field          string `json:"field" validate:"max=200"`
	GraduationDate string `json:"graduationDate" validate:"omitempty,resumedate"`
	GPA            string `json:"gpa,omitempty" validate:"max=20"`
}

// SectionType 是自定义板块的内容类型。
type SectionType string

const (
	SectionText SectionType = "text"
	SectionList SectionType = "list"
)

// CustomSection 是用户自定义板块。list 类型的 Content 以换行分隔，每个非空行为一项。
type CustomSection struct {
	ID      string      `json:"id" validate:"max=64"`
	Title   string      `json:"title" validate:"max=200"`
	Type    SectionType `json:"type" validate:"oneof=text list"`
	Content string      `json:"content" validate:"max=10000"`
}

// ListItems splits list content into trimmed, non-blank lines.
func (s CustomSection) ListItems() []string {
	lines := strings.Split(s.Content, "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}

// IsEmpty reports whether the section has nothing to display for its type.
func (s CustomSection) IsEmpty() bool {
	if s.Type == SectionList {
		return len(s.ListItems()) == 0
	}
	return strings.TrimSpace(s.Content) == ""
}

// TemplateID 标识一种模板布局，取值来自固定集合。
type TemplateID string

const (
	TemplateModernMinimal      TemplateID = "modern-minimal"
	TemplateModernMinimalPhoto TemplateID = "modern-minimal-photo"
	TemplateCreativePhoto      TemplateID = "creative-photo"
	TemplateExecutivePro       TemplateID = "executive-pro"
	TemplateTechFocused        TemplateID = "tech-focused"

	DefaultTemplate = TemplateModernMinimal
)

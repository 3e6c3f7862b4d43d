package resume

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	dateRe       = regexp.MustCompile(`^(?i:present|\d{4}(-\d{1,2})?)$`)
	cssColorRe   = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|(rgb|rgba|hsl|hsla)\(\s*[0-9.,%\s/]+\))$`)
	fontFamilyRe = regexp.MustCompile(`^[a-zA-Z0-9 ,'"\-]{1,120}$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("resumedate", func(fl validator.FieldLevel) bool {
			return dateRe.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
			return IsCSSColor(fl.Field().String())
		})
		_ = validate.RegisterValidation("fontfamily", func(fl validator.FieldLevel) bool {
			return IsFontFamily(fl.Field().String())
		})
	})
	return validate
}

// IsCSSColor reports whether v is a hex, named or rgb/hsl functional color.
func IsCSSColor(v string) bool {
	return cssColorRe.MatchString(strings.TrimSpace(v))
}

// IsFontFamily reports whether v is a plain comma separated font family list.
func IsFontFamily(v string) bool {
	return fontFamilyRe.MatchString(strings.TrimSpace(v))
}

// ValidationError 汇总字段级校验失败信息。
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid resume: %s", strings.Join(e.Fields, "; "))
}

// Validate 校验表单保存的简历内容。导出路径不做校验，按原样读取。
func Validate(doc Document) error {
	return toValidationError(validatorInstance().Struct(doc))
}

// ValidateStyle 校验样式参数，避免写入无法安全注入 CSS 的值。
func ValidateStyle(style StyleConfig) error {
	return toValidationError(validatorInstance().Struct(style))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate resume: %w", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Fields: fields}
}

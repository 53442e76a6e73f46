package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// EntityTypePattern определяет допустимый формат имени entity type
// Имя типа становится сегментом URL и частью ключа кэша, поэтому
// допускаются только строчные латинские буквы, цифры, '_' и '-'
var EntityTypePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

const (
	// MaxEntityTypeLen максимальная длина имени entity type
	MaxEntityTypeLen = 64
	// MaxEntityIDLen максимальная длина id entity
	MaxEntityIDLen = 128
)

// ValidateEntityType проверяет имя entity type
func ValidateEntityType(entityType string) error {
	if entityType == "" {
		return fmt.Errorf("entity type cannot be empty")
	}

	if len(entityType) > MaxEntityTypeLen {
		return fmt.Errorf("entity type must not exceed %d characters", MaxEntityTypeLen)
	}

	if !EntityTypePattern.MatchString(entityType) {
		return fmt.Errorf("entity type can only contain lowercase letters (a-z), numbers (0-9), underscores (_) and hyphens (-)")
	}

	return nil
}

// ValidateEntityID проверяет id entity перед подстановкой в путь запроса
func ValidateEntityID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("entity id cannot be empty")
	}

	if len(id) > MaxEntityIDLen {
		return fmt.Errorf("entity id must not exceed %d characters", MaxEntityIDLen)
	}

	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("entity id cannot contain '/', '?' or '#'")
	}

	return nil
}

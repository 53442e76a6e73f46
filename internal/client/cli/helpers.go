package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

// parseEntityType проверяет имя типа из аргументов команды
func parseEntityType(s string) (api.EntityType, error) {
	s = strings.TrimSpace(s)
	if err := validation.ValidateEntityType(s); err != nil {
		return "", fmt.Errorf("invalid entity type: %w", err)
	}
	return api.EntityType(s), nil
}

// parseFilters разбирает key=value
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filters[key] = value
	}
	return filters, nil
}

// parseEntityData разбирает JSON объект из аргумента команды
func parseEntityData(raw string) (models.Entity, error) {
	data, err := models.DecodeEntity([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid entity data: %w", err)
	}
	return data, nil
}

// summary однострочное представление entity без служебных полей
func summary(e models.Entity) string {
	keys := make([]string, 0, len(e))
	for k := range e {
		switch k {
		case models.FieldID, models.FieldCreatedAt, models.FieldUpdatedAt:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		raw, err := json.Marshal(e[k])
		if err != nil {
			raw = []byte(fmt.Sprint(e[k]))
		}
		parts = append(parts, k+"="+string(raw))
	}
	return strings.Join(parts, " ")
}

func formatAge(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	return d.Round(time.Second).String() + " ago"
}

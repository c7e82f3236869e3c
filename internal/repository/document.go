// Package repository содержит реализации шлюза хранения документа состояния спортзала.
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/mmeshcher/apolo-gym/internal/model"
)

// decodeState разбирает документ состояния и подставляет значения по умолчанию для отсутствующих ключей.
func decodeState(data []byte) (*model.State, error) {
	var s model.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	s.Normalize()
	return &s, nil
}

func encodeState(s model.State) ([]byte, error) {
	s.Normalize()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Пакет patch реализует структурное слияние JSON-документов в духе RFC 7396.
// Им пользуются правки поездок: частичный документ-патч накладывается поверх
// сырого статуса travelynx, не затрагивая сам сырой статус в хранилище.
package patch

import (
	"encoding/json"
	"fmt"
)

// Merge накладывает src поверх dst и возвращает новый документ. Вложенные
// объекты сливаются рекурсивно, скалярные значения и массивы из src замещают
// значения dst целиком, явный null в src удаляет ключ из результата. Исходные
// карты не изменяются, но результат может разделять незатронутые вложенные
// объекты с dst.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			if base, ok := out[k].(map[string]any); ok {
				out[k] = Merge(base, sub)
			} else {
				out[k] = Merge(map[string]any{}, sub)
			}
			continue
		}
		out[k] = v
	}
	return out
}

// MergeJSON сливает два JSON-документа по правилам Merge. Пустые или nil
// аргументы трактуются как пустой объект.
func MergeJSON(dst, src []byte) ([]byte, error) {
	base, err := decode(dst)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать исходный документ: %w", err)
	}
	layer, err := decode(src)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать патч: %w", err)
	}
	return json.Marshal(Merge(base, layer))
}

func decode(doc []byte) (map[string]any, error) {
	if len(doc) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package xmltree

import (
	"strconv"
	"strings"
)

// Функции доступа рассчитаны на дерево, построенное с DefaultOptions. Они
// тотальны: отсутствие данных даёт "" или пустой срез, а не ошибку.

// Child возвращает значение ключа key, если node - отображение.
func Child(node any, key string) any {
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

// First возвращает node или первый элемент, если node - последовательность.
func First(node any) any {
	if list, ok := node.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return node
}

// Text возвращает текст узла: строку как есть, значение "#text" у отображения,
// строковое представление прочих скаляров; иначе "".
func Text(node any) string {
	switch v := node.(type) {
	case map[string]any:
		return scalar(v[DefaultTextKey])
	default:
		return scalar(v)
	}
}

// List превращает отсутствующий узел в пустой срез, одиночный - в срез из одного элемента.
func List(node any) []any {
	switch v := node.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	default:
		return []any{v}
	}
}

// Attr возвращает атрибут name (без префикса) узла node.
func Attr(node any, name string) string {
	return scalar(Child(node, DefaultAttributePrefix+name))
}

// ImageURL ищет адрес картинки: атрибут href, дочерний url, затем текст.
func ImageURL(node any) string {
	node = First(node)
	if s, ok := node.(string); ok {
		return s
	}
	if href := Attr(node, "href"); href != "" {
		return href
	}
	if u := Text(First(Child(node, "url"))); u != "" {
		return u
	}
	return Text(node)
}

// AudioURLFromEnclosures выбирает адрес аудио из RSS enclosure. Для
// последовательности берётся первый элемент с типом, содержащим "audio";
// одиночный enclosure возвращается без проверки типа.
func AudioURLFromEnclosures(node any) string {
	switch v := node.(type) {
	case []any:
		for _, enc := range v {
			if strings.Contains(Attr(enc, "type"), "audio") {
				return Attr(enc, "url")
			}
		}
		return ""
	case map[string]any:
		return Attr(v, "url")
	default:
		return ""
	}
}

// AudioURLFromLinks возвращает href первой Atom-ссылки с типом, содержащим "audio".
func AudioURLFromLinks(links any) string {
	for _, link := range List(links) {
		if strings.Contains(Attr(link, "type"), "audio") {
			return Attr(link, "href")
		}
	}
	return ""
}

func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

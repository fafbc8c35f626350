package config

import (
	"strings"

	"github.com/iancoleman/strcase"
)

type NamingConvention interface {
	// ToLabel turns a column name into the text shown in dropdowns.
	ToLabel(name string) string
}

type defaultNaming struct {
}

func NewDefaultNaming() NamingConvention {
	return &defaultNaming{}
}

func (n *defaultNaming) ToLabel(name string) string {
	words := strings.Fields(strcase.ToDelimited(name, ' '))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringTruncation(t *testing.T) {
	post := Post{Text: "Тестовый пост для проверки длины"}
	assert.Equal(t, "Тестовый пост д", post.String())
	assert.Equal(t, "short", Post{Text: "short"}.String())
	assert.Equal(t, "Группа", Group{Title: "Группа"}.String())
	assert.Equal(t, "123456789012345", Comment{Text: "1234567890123456"}.String())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Лев Толстой", User{Username: "leo", FirstName: "Лев", LastName: "Толстой"}.FullName())
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
	assert.Equal(t, "Лев", User{Username: "leo", FirstName: "Лев"}.FullName())
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("text", "first")
	verr.Add("text", "second")
	verr.Add("group", "bad")

	err := verr.OrNil()
	assert.Error(t, err)
	assert.Equal(t, "first", verr.Fields["text"])
	assert.Equal(t, "validation failed: group: bad; text: first", err.Error())

	var target *ValidationError
	assert.True(t, errors.As(err, &target))
}

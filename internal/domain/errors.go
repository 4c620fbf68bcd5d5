package domain

import "errors"

// ErrNotFound — сущность (комната, пользователь, файл) отсутствует на
// стороне платформы. Проверяется через errors.Is.
var ErrNotFound = errors.New("entity not found")

// Package resetcode выдаёт одноразовые числовые коды для восстановления пароля.
package resetcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

const (
	// Min наименьший возможный код.
	Min = 10000000
	// Max наибольший возможный код.
	Max = 99999999
	// Length количество цифр в коде.
	Length = 8
)

var span = big.NewInt(Max - Min + 1)

// Generator выдаёт коды, равномерно распределённые на [Min, Max].
type Generator struct {
	rand io.Reader
}

// New создаёт генератор на crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewWithReader создаёт генератор с заданным источником случайности.
func NewWithReader(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate возвращает новый восьмизначный код.
func (g *Generator) Generate() (string, error) {
	const op = "resetcode.Generate"
	n, err := rand.Int(g.rand, span)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strconv.FormatInt(n.Int64()+Min, 10), nil
}

// IsWellFormed проверяет, что строка похожа на код: ровно восемь цифр без ведущего нуля.
func IsWellFormed(code string) bool {
	if len(code) != Length || code[0] == '0' {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

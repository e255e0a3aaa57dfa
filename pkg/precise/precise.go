// Package precise 提供基于十进制字符串的精确算术
// 所有运算都在 shopspring/decimal 上完成，输入输出均为十进制字符串，不经过 float64
package precise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// 除法保留的小数位数，足以覆盖 1e-16 级别的步长与比率
const divisionPrecision = 32

// RoundingMode 取整模式
type RoundingMode int

const (
	// Truncate 向零截断，绝不向上取整
	Truncate RoundingMode = iota
	// Round 四舍五入，恰好一半时远离零
	Round
)

var (
	// ErrInvalidNumber 非法的十进制字符串
	ErrInvalidNumber = errors.New("precise: invalid decimal string")
	// ErrDivisionByZero 除数为零
	ErrDivisionByZero = errors.New("precise: division by zero")
	// ErrInvalidStep 步长必须为正数
	ErrInvalidStep = errors.New("precise: step must be positive")
)

// Parse 将十进制字符串解析为 decimal.Decimal
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}

// Normalize 返回规范形式（去掉多余的前导零与尾随零）
func Normalize(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func binary(a, b string, op func(x, y decimal.Decimal) decimal.Decimal) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	y, err := Parse(b)
	if err != nil {
		return "", err
	}
	return op(x, y).String(), nil
}

// Add a + b
func Add(a, b string) (string, error) {
	return binary(a, b, decimal.Decimal.Add)
}

// Sub a - b
func Sub(a, b string) (string, error) {
	return binary(a, b, decimal.Decimal.Sub)
}

// Mul a * b
func Mul(a, b string) (string, error) {
	return binary(a, b, decimal.Decimal.Mul)
}

// Div a / b，结果保留 32 位小数后去除尾随零
func Div(a, b string) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	y, err := Parse(b)
	if err != nil {
		return "", err
	}
	if y.IsZero() {
		return "", ErrDivisionByZero
	}
	return x.DivRound(y, divisionPrecision).String(), nil
}

// Neg -a
func Neg(a string) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	return x.Neg().String(), nil
}

// Abs |a|
func Abs(a string) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	return x.Abs().String(), nil
}

// Cmp 比较 a 与 b：a<b 返回 -1，相等返回 0，a>b 返回 1
func Cmp(a, b string) (int, error) {
	x, err := Parse(a)
	if err != nil {
		return 0, err
	}
	y, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

// Eq a == b（数值相等，"1.0" 与 "1" 相等）
func Eq(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return c == 0, err
}

// Gt a > b
func Gt(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return c > 0, err
}

// Ge a >= b
func Ge(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return c >= 0, err
}

// Lt a < b
func Lt(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return c < 0, err
}

// Le a <= b
func Le(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return c <= 0, err
}

// Max 返回较大者的规范形式
func Max(a, b string) (string, error) {
	return binary(a, b, func(x, y decimal.Decimal) decimal.Decimal {
		if x.Cmp(y) >= 0 {
			return x
		}
		return y
	})
}

// Min 返回较小者的规范形式
func Min(a, b string) (string, error) {
	return binary(a, b, func(x, y decimal.Decimal) decimal.Decimal {
		if x.Cmp(y) <= 0 {
			return x
		}
		return y
	})
}

// IsZero a == 0
func IsZero(a string) (bool, error) {
	x, err := Parse(a)
	if err != nil {
		return false, err
	}
	return x.IsZero(), nil
}

// ToPrecision 将 value 对齐到 step 的整数倍
// Truncate 模式向零截断；Round 模式按最近倍数取整，恰好一半时远离零。
// 商与余数均通过 QuoRem 精确求得，结果恒为 step 的整数倍，因此重复调用结果不变。
func ToPrecision(value, step string, mode RoundingMode) (string, error) {
	v, err := Parse(value)
	if err != nil {
		return "", err
	}
	s, err := Parse(step)
	if err != nil {
		return "", err
	}
	if !s.IsPositive() {
		return "", ErrInvalidStep
	}

	q, r := v.QuoRem(s, 0)
	if mode == Round && !r.IsZero() {
		// |2r| >= step 时进一位（远离零）
		if r.Abs().Mul(decimal.NewFromInt(2)).Cmp(s) >= 0 {
			if v.IsNegative() {
				q = q.Sub(decimal.NewFromInt(1))
			} else {
				q = q.Add(decimal.NewFromInt(1))
			}
		}
	}
	return q.Mul(s).String(), nil
}

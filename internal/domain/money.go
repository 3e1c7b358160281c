package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale — все денежные суммы хранятся с точностью до цента.
const moneyScale = 2

// Money — денежная сумма в точной десятичной арифметике.
// Округление всегда до 2 знаков по правилу half-away-from-zero;
// бинарные float для денег не используются нигде в системе.
type Money struct {
	amount decimal.Decimal
}

// NewMoney создаёт сумму из decimal, отклоняя отрицательные значения.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrMoneyNegative
	}
	return Money{amount: amount.Round(moneyScale)}, nil
}

// MoneyFromString парсит десятичную строку ("19.99") в Money.
func MoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", value, err)
	}
	return NewMoney(d)
}

// MoneyFromFloat конвертирует число из внешнего API в Money.
// Используется только на границе системы, внутри — decimal.
func MoneyFromFloat(value float64) (Money, error) {
	return NewMoney(decimal.NewFromFloat(value))
}

// ZeroMoney возвращает нулевую сумму.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// Add возвращает сумму двух значений.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract возвращает разность или ошибку, если результат отрицательный.
func (m Money) Subtract(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, ErrMoneyNegativeResult
	}
	return Money{amount: result}, nil
}

// MultiplyInt умножает сумму на целое количество и округляет до цента.
func (m Money) MultiplyInt(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity))).Round(moneyScale)}
}

// GreaterThan проверяет m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// GreaterOrEqual проверяет m >= other.
func (m Money) GreaterOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// LessThan проверяет m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// Equal проверяет равенство сумм.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// IsZero сообщает, равна ли сумма нулю.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Decimal отдаёт сырое значение для хранилища.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Float64 отдаёт приближённое значение для метрик и процентов.
// Для денежных сравнений и арифметики не использовать.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String форматирует сумму с двумя знаками после запятой.
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale)
}

// MarshalJSON сериализует сумму как десятичную строку.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON принимает десятичную строку или JSON-число.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Число без кавычек — парсим как decimal напрямую.
		d, derr := decimal.NewFromString(string(data))
		if derr != nil {
			return fmt.Errorf("unmarshal money: %w", err)
		}
		parsed, merr := NewMoney(d)
		if merr != nil {
			return merr
		}
		*m = parsed
		return nil
	}
	parsed, err := MoneyFromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// mustMoney — для констант уровня пакета; паникует на некорректном значении.
func mustMoney(value string) Money {
	m, err := MoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return m
}

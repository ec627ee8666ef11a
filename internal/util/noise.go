package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise обертка над генератором шума Перлина с фиксированным сидом
type Noise struct {
	perlin *perlin.Perlin
}

// NewNoise создает генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{
		perlin: perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Noise1D возвращает значение шума для указанной координаты (от 0 до 1)
func (n *Noise) Noise1D(x float64) float64 {
	return (n.perlin.Noise1D(x) + 1.0) / 2.0
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Получаем значение шума (от -1 до 1) и приводим к диапазону от 0 до 1
	return (n.perlin.Noise2D(x, y) + 1.0) / 2.0
}

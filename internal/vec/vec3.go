package vec

import (
	"math"

	"github.com/annel0/tome/internal/util"
)

// Vec3 представляет трехмерный вектор с целочисленными координатами (ячейка сетки)
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Vec3Float представляет трехмерный вектор с плавающими координатами (мировое пространство)
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// One единичный масштаб
var One = Vec3Float{X: 1, Y: 1, Z: 1}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// ToFloat преобразует в вектор с плавающей точкой
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul покомпонентно умножает векторы
func (v Vec3Float) Mul(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X * other.X, Y: v.Y * other.Y, Z: v.Z * other.Z}
}

// Div покомпонентно делит векторы
func (v Vec3Float) Div(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X / other.X, Y: v.Y / other.Y, Z: v.Z / other.Z}
}

// Scale умножает вектор на скаляр
func (v Vec3Float) Scale(s float64) Vec3Float {
	return Vec3Float{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}

// Round округляет каждую координату до ближайшего целого (половина вверх)
func (v Vec3Float) Round() Vec3 {
	return Vec3{X: util.RoundToInt(v.X), Y: util.RoundToInt(v.Y), Z: util.RoundToInt(v.Z)}
}

// Ceil округляет каждую координату вверх
func (v Vec3Float) Ceil() Vec3 {
	return Vec3{X: int(math.Ceil(v.X)), Y: int(math.Ceil(v.Y)), Z: int(math.Ceil(v.Z))}
}

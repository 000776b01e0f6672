package domain

import "math"

// MaxQuantity — потолок количества для одной позиции корзины.
const MaxQuantity = 4

// CartState хранит содержимое корзины, сгруппированное по продавцу (woodworker).
//
// Значение неизменяемо: все операции возвращают новый CartState и никогда не
// модифицируют исходные карты и срезы. Нетронутые bucket'ы разделяются между
// снимками, копируется только карта верхнего уровня и затронутый bucket.
type CartState struct {
	Designs  map[string][]DesignCartItem  `json:"designs"`
	Products map[string][]ProductCartItem `json:"products"`
}

// Outcome описывает результат операции над корзиной.
type Outcome struct {
	// Changed — состояние действительно изменилось.
	Changed bool
	// Clamped — запрошенное количество было урезано до MaxQuantity.
	Clamped bool
	// Requested — итоговое количество, которое запросил вызывающий.
	Requested int
	// Applied — количество, оказавшееся в корзине.
	Applied int
}

// NewCartState возвращает пустую корзину.
func NewCartState() CartState {
	return CartState{
		Designs:  make(map[string][]DesignCartItem),
		Products: make(map[string][]ProductCartItem),
	}
}

// AddDesign добавляет вариант дизайна или увеличивает количество уже добавленного.
func (c CartState) AddDesign(item DesignCartItem) (CartState, Outcome) {
	designs, outcome := addItem(c.Designs, item.WoodworkerID, item)
	return CartState{Designs: designs, Products: c.Products}, outcome
}

// RemoveDesign удаляет вариант дизайна из bucket'а продавца.
func (c CartState) RemoveDesign(woodworkerID, variantID string) (CartState, Outcome) {
	designs, outcome := removeItem(c.Designs, woodworkerID, variantID)
	return CartState{Designs: designs, Products: c.Products}, outcome
}

// ChangeDesignQuantity выставляет количество для варианта дизайна.
// Нижняя граница не проверяется: за положительное значение отвечает вызывающий.
func (c CartState) ChangeDesignQuantity(woodworkerID, variantID string, quantity int) (CartState, Outcome) {
	designs, outcome := changeQuantity(c.Designs, woodworkerID, variantID, quantity)
	return CartState{Designs: designs, Products: c.Products}, outcome
}

// AddProduct добавляет товар или увеличивает количество уже добавленного.
func (c CartState) AddProduct(item ProductCartItem) (CartState, Outcome) {
	products, outcome := addItem(c.Products, item.WoodworkerID, item)
	return CartState{Designs: c.Designs, Products: products}, outcome
}

// RemoveProduct удаляет товар из bucket'а продавца.
func (c CartState) RemoveProduct(woodworkerID, productID string) (CartState, Outcome) {
	products, outcome := removeItem(c.Products, woodworkerID, productID)
	return CartState{Designs: c.Designs, Products: products}, outcome
}

// ChangeProductQuantity выставляет количество для товара.
func (c CartState) ChangeProductQuantity(woodworkerID, productID string, quantity int) (CartState, Outcome) {
	products, outcome := changeQuantity(c.Products, woodworkerID, productID, quantity)
	return CartState{Designs: c.Designs, Products: products}, outcome
}

// ItemCount возвращает сумму количеств по всем позициям корзины.
func (c CartState) ItemCount() int {
	total := 0
	for _, bucket := range c.Designs {
		for _, item := range bucket {
			total += item.Quantity
		}
	}
	for _, bucket := range c.Products {
		for _, item := range bucket {
			total += item.Quantity
		}
	}
	return total
}

// IsEmpty сообщает, что в корзине нет ни одной позиции.
func (c CartState) IsEmpty() bool {
	return len(c.Designs) == 0 && len(c.Products) == 0
}

// Normalize приводит декодированное состояние к инвариантам: nil-карты заменяются
// пустыми, пустые bucket'ы удаляются.
func (c CartState) Normalize() CartState {
	return CartState{
		Designs:  normalizeBuckets(c.Designs),
		Products: normalizeBuckets(c.Products),
	}
}

// Clone возвращает глубокую копию, которую можно модифицировать без влияния на снимок.
func (c CartState) Clone() CartState {
	out := NewCartState()
	for seller, bucket := range c.Designs {
		items := make([]DesignCartItem, len(bucket))
		for i, item := range bucket {
			items[i] = item.clone()
		}
		out.Designs[seller] = items
	}
	for seller, bucket := range c.Products {
		items := make([]ProductCartItem, len(bucket))
		for i, item := range bucket {
			items[i] = item.clone()
		}
		out.Products[seller] = items
	}
	return out
}

// Equal сравнивает два состояния структурно, с учётом порядка позиций в bucket'ах.
func (c CartState) Equal(other CartState) bool {
	return bucketsEqual(c.Designs, other.Designs) && bucketsEqual(c.Products, other.Products)
}

// cartItem — общий контракт позиций корзины для обобщённых операций.
type cartItem[T any] interface {
	itemKey() string
	itemSeller() string
	itemQuantity() int
	withQuantity(quantity int) T
	equal(other T) bool
}

func clampQuantity(quantity int) int {
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}

// saturatingAdd складывает без переполнения int, упираясь в границы диапазона.
func saturatingAdd(a, b int) int {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt
	}
	return sum
}

func indexOf[T cartItem[T]](bucket []T, key string) int {
	for i, item := range bucket {
		if item.itemKey() == key {
			return i
		}
	}
	return -1
}

// copyBuckets копирует только карту верхнего уровня; срезы остаются общими.
func copyBuckets[T any](buckets map[string][]T) map[string][]T {
	out := make(map[string][]T, len(buckets)+1)
	for seller, bucket := range buckets {
		out[seller] = bucket
	}
	return out
}

func addItem[T cartItem[T]](buckets map[string][]T, seller string, item T) (map[string][]T, Outcome) {
	requested := item.itemQuantity()

	bucket := buckets[seller]
	if idx := indexOf(bucket, item.itemKey()); idx >= 0 {
		if requested == 0 {
			requested = 1
		}
		current := bucket[idx].itemQuantity()
		total := saturatingAdd(current, requested)
		applied := max(1, clampQuantity(total))

		next := make([]T, len(bucket))
		copy(next, bucket)
		next[idx] = bucket[idx].withQuantity(applied)

		out := copyBuckets(buckets)
		out[seller] = next
		return out, Outcome{
			Changed:   applied != current,
			Clamped:   applied != total,
			Requested: total,
			Applied:   applied,
		}
	}

	// Новая позиция начинается минимум с одной единицы.
	if requested <= 0 {
		requested = 1
	}
	applied := clampQuantity(requested)
	next := make([]T, len(bucket), len(bucket)+1)
	copy(next, bucket)
	next = append(next, item.withQuantity(applied))

	out := copyBuckets(buckets)
	out[seller] = next
	return out, Outcome{
		Changed:   true,
		Clamped:   applied != requested,
		Requested: requested,
		Applied:   applied,
	}
}

func removeItem[T cartItem[T]](buckets map[string][]T, seller, key string) (map[string][]T, Outcome) {
	bucket, ok := buckets[seller]
	if !ok {
		return buckets, Outcome{}
	}
	idx := indexOf(bucket, key)
	if idx < 0 {
		return buckets, Outcome{}
	}

	out := copyBuckets(buckets)
	if len(bucket) == 1 {
		delete(out, seller)
		return out, Outcome{Changed: true}
	}

	next := make([]T, 0, len(bucket)-1)
	next = append(next, bucket[:idx]...)
	next = append(next, bucket[idx+1:]...)
	out[seller] = next
	return out, Outcome{Changed: true}
}

func changeQuantity[T cartItem[T]](buckets map[string][]T, seller, key string, quantity int) (map[string][]T, Outcome) {
	bucket := buckets[seller]
	idx := indexOf(bucket, key)
	if idx < 0 {
		return buckets, Outcome{Requested: quantity}
	}

	current := bucket[idx].itemQuantity()
	applied := clampQuantity(quantity)

	next := make([]T, len(bucket))
	copy(next, bucket)
	next[idx] = bucket[idx].withQuantity(applied)

	out := copyBuckets(buckets)
	out[seller] = next
	return out, Outcome{
		Changed:   applied != current,
		Clamped:   applied != quantity,
		Requested: quantity,
		Applied:   applied,
	}
}

func normalizeBuckets[T any](buckets map[string][]T) map[string][]T {
	out := make(map[string][]T, len(buckets))
	for seller, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		out[seller] = bucket
	}
	return out
}

func bucketsEqual[T cartItem[T]](a, b map[string][]T) bool {
	if len(a) != len(b) {
		return false
	}
	for seller, left := range a {
		right, ok := b[seller]
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !left[i].equal(right[i]) {
				return false
			}
		}
	}
	return true
}

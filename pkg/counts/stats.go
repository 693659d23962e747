package counts

// Discount holds the modified Kneser-Ney discount coefficients for one
// order, indexed by count bucket {0, 1, 2, 3+}.
type Discount struct {
	Amount [4]float64
}

// orderStat accumulates one order's count-of-count histogram.
// n[0] is n_1 in equation 26 of Chen and Goodman.
type orderStat struct {
	n     [4]uint64
	count uint64
}

// StatCollector accumulates, per order, the count-of-count histogram
// (buckets 1..4) and the total number of distinct entries, then derives
// the discount coefficients.
type StatCollector struct {
	orders []orderStat
}

// NewStatCollector creates a collector for the given top order.
func NewStatCollector(order int) *StatCollector {
	return &StatCollector{orders: make([]orderStat, order)}
}

// Add registers one distinct entry of the given lower order (zero-based
// index) with its raw or adjusted count.
func (s *StatCollector) Add(orderMinus1 int, count uint64) {
	stat := &s.orders[orderMinus1]
	stat.count++
	if count >= 1 && count <= 4 {
		stat.n[count-1]++
	}
}

// AddFull registers one distinct top-order entry with its raw count.
func (s *StatCollector) AddFull(count uint64) {
	s.Add(len(s.orders)-1, count)
}

// Complete returns, per order, the total distinct-entry count and the
// discount vector of equation 26 in Chen and Goodman, with the
// zero-based order index as the subtracted base term. A zero histogram
// bucket yields a non-finite coefficient; that is data, not a fault,
// and is passed through for the caller to judge.
func (s *StatCollector) Complete() ([]uint64, []Discount) {
	counts := make([]uint64, len(s.orders))
	discounts := make([]Discount, len(s.orders))
	for i := range s.orders {
		stat := &s.orders[i]
		counts[i] = stat.count

		y := float64(stat.n[0]) / (float64(stat.n[0]) + 2*float64(stat.n[1]))
		var d Discount
		d.Amount[0] = 0
		for j := 1; j < 4; j++ {
			d.Amount[j] = float64(i) - float64(i+1)*y*float64(stat.n[j])/float64(stat.n[j-1])
		}
		discounts[i] = d
	}
	return counts, discounts
}

// Histogram returns one order's buckets n1..n4, for inspection.
func (s *StatCollector) Histogram(orderMinus1 int) [4]uint64 {
	return s.orders[orderMinus1].n
}

package store

// QuickSort returns a sorted copy of numbers using a three-way partition.
//
// The pivot is the middle element. Values are split into strictly-less,
// equal and strictly-greater slices, the outer two are sorted recursively and
// the parts are concatenated in the requested direction. The input is never
// modified; every level allocates new slices.
func QuickSort(numbers []int32, dir Direction) []int32 {
	if len(numbers) <= 1 {
		return append([]int32{}, numbers...)
	}

	pivot := numbers[len(numbers)/2]
	var less, equal, greater []int32
	for _, n := range numbers {
		switch {
		case n < pivot:
			less = append(less, n)
		case n > pivot:
			greater = append(greater, n)
		default:
			equal = append(equal, n)
		}
	}

	sortedLess := QuickSort(less, dir)
	sortedGreater := QuickSort(greater, dir)

	result := make([]int32, 0, len(numbers))
	if dir == Descending {
		result = append(result, sortedGreater...)
		result = append(result, equal...)
		return append(result, sortedLess...)
	}
	result = append(result, sortedLess...)
	result = append(result, equal...)
	return append(result, sortedGreater...)
}

package driver

// Reshape превращает плоский буфер выборки в матрицу: по строке на каждое
// значение программы источника, ширина строки выводится из длины буфера.
// Буфер, не делящийся нацело на число значений, отклоняется как ошибка
// формы, а не обрезается молча.
func Reshape(flat []float64, sourceValueCount int) ([][]float64, error) {
	if sourceValueCount < 1 {
		return nil, Errorf(KindShape, "source value count must be >= 1, got %d", sourceValueCount)
	}
	if len(flat) == 0 {
		return nil, Errorf(KindShape, "empty fetch buffer")
	}
	if len(flat)%sourceValueCount != 0 {
		return nil, Errorf(KindShape,
			"fetch buffer of %d elements is not divisible into %d rows", len(flat), sourceValueCount)
	}
	width := len(flat) / sourceValueCount
	rows := make([][]float64, sourceValueCount)
	for i := 0; i < sourceValueCount; i++ {
		rows[i] = flat[i*width : (i+1)*width : (i+1)*width]
	}
	return rows, nil
}

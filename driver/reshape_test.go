package driver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReshapeRowMajor(t *testing.T) {
	flat := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	rows, err := Reshape(flat, 3)
	require.NoError(t, err, "Буфер из 12 элементов должен делиться на 3 строки")
	require.Len(t, rows, 3)
	for i, row := range rows {
		require.Len(t, row, 4, "Ширина строки должна выводиться из длины буфера")
		for j, v := range row {
			require.Equal(t, float64(i*4+j), v, "Порядок элементов должен сохраняться построчно")
		}
	}
}

func TestReshapeSingleRow(t *testing.T) {
	rows, err := Reshape([]float64{1.5, 2.5}, 1)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1.5, 2.5}}, rows)
}

func TestReshapeRejectsMisalignedBuffer(t *testing.T) {
	_, err := Reshape([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 3)
	require.Error(t, err, "Буфер из 10 элементов не делится на 3 строки")
	require.Equal(t, KindShape, KindOf(err))
}

func TestReshapeRejectsEmptyBuffer(t *testing.T) {
	_, err := Reshape(nil, 3)
	require.Error(t, err)
	require.Equal(t, KindShape, KindOf(err))
}

func TestReshapeRejectsNonPositiveCount(t *testing.T) {
	_, err := Reshape([]float64{1, 2, 3}, 0)
	require.Error(t, err)
	require.Equal(t, KindShape, KindOf(err))
}

package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardDrawings(t *testing.T) {
	cards := newTable(t, TableCreditCard,
		ints(KeyApplicant, 1, 1, 1, 2),
		floats("MONTHS_BALANCE", -1, -6, -7, -2),
		floats("AMT_DRAWINGS_ATM_CURRENT", 100, nan, 1000, nan),
		floats("AMT_DRAWINGS_CURRENT", 10, 20, 1000, nan),
		floats("AMT_DRAWINGS_OTHER_CURRENT", nan, 1, 1000, nan),
		floats("AMT_DRAWINGS_POS_CURRENT", 5, nan, 1000, nan))
	before := cards.Fingerprint()

	out, err := NewCardDrawings(DefaultDrawingsWindow).
		Transform(context.Background(), applicants(t), Tables{TableCreditCard: cards})
	require.NoError(t, err)

	// month -7 is outside the window; missing amounts count as 0
	assert.Equal(t, []float64{136, 0, 0}, mustFloats(t, out, "AMT_DRAWINGS_TOTAL"))
	assert.Equal(t, before, cards.Fingerprint())
}

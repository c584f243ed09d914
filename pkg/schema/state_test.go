package schema

import (
	"testing"

	"github.com/ajitpratap0/creditrisk/pkg/columnar"
	"github.com/ajitpratap0/creditrisk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dropID = Contract{
	Requires: []Field{F("SK_ID_CURR", KindKey)},
	Drops:    []string{"SK_ID_CURR"},
}

var joinStep = Contract{
	Requires:  []Field{F("SK_ID_CURR", KindKey)},
	Produces:  []Field{F("FLAG_DPD", KindNumeric)},
	Auxiliary: map[string][]Field{"credit_card": {F("SK_ID_CURR", KindKey), F("SK_DPD", KindNumeric)}},
}

func TestState_OpenRejectsRequireAfterDrop(t *testing.T) {
	s := NewOpenState()
	require.NoError(t, s.Apply("drop_id", dropID))

	err := s.Apply("credit_card_dpd", joinStep)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "drop_id")
}

func TestState_OpenRejectsDuplicateProduce(t *testing.T) {
	s := NewOpenState()
	require.NoError(t, s.Apply("first", joinStep))
	err := s.Apply("second", joinStep)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestState_InPlaceRewrite(t *testing.T) {
	s := NewOpenState()
	rewrite := Contract{
		Requires: []Field{F("ORGANIZATION_TYPE", KindString)},
		Produces: []Field{F("ORGANIZATION_TYPE", KindString)},
	}
	require.NoError(t, s.Apply("a", rewrite))
	require.NoError(t, s.Apply("b", rewrite))
}

func TestState_Closed(t *testing.T) {
	primary := &columnar.Schema{Fields: []columnar.FieldSchema{
		{Name: "SK_ID_CURR", Type: columnar.ColumnTypeInt},
		{Name: "ORGANIZATION_TYPE", Type: columnar.ColumnTypeString},
	}}
	aux := map[string]*columnar.Schema{
		"credit_card": {Fields: []columnar.FieldSchema{
			{Name: "SK_ID_CURR", Type: columnar.ColumnTypeInt},
			{Name: "SK_DPD", Type: columnar.ColumnTypeFloat},
		}},
	}

	tests := []struct {
		name    string
		steps   []Contract
		wantErr bool
	}{
		{"join then drop", []Contract{joinStep, dropID}, false},
		{"drop then join", []Contract{dropID, joinStep}, true},
		{"missing primary column", []Contract{{Requires: Numeric("AMT_CREDIT")}}, true},
		{"wrong kind", []Contract{{Requires: Numeric("ORGANIZATION_TYPE")}}, true},
		{"missing auxiliary table", []Contract{{Auxiliary: map[string][]Field{"bureau": nil}}}, true},
		{"missing auxiliary column", []Contract{{Auxiliary: map[string][]Field{"credit_card": Numeric("AMT_BALANCE")}}}, true},
		{"drop unknown", []Contract{{Drops: []string{"OBS_30_CNT_SOCIAL_CIRCLE"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(primary, aux)
			var err error
			for i, c := range tt.steps {
				if err = s.Apply(string(rune('a'+i)), c); err != nil {
					break
				}
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestState_Columns(t *testing.T) {
	s := NewOpenState()
	require.NoError(t, s.Apply("join", joinStep))
	assert.Equal(t, []string{"FLAG_DPD", "SK_ID_CURR"}, s.Columns())
	assert.True(t, s.Has("FLAG_DPD"))
}

func TestContract_String(t *testing.T) {
	assert.Equal(t,
		"requires=[SK_ID_CURR:key] produces=[FLAG_DPD:numeric] credit_card=[SK_ID_CURR:key,SK_DPD:numeric]",
		joinStep.String())
	assert.Equal(t, "requires=[SK_ID_CURR:key] produces=[] drops=[SK_ID_CURR]", dropID.String())
}

package models_test

import (
	"testing"

	"pulsegrid-client/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPulseGrid_MissingKeyIsEmptyString(t *testing.T) {
	g := models.NewPulseGrid()
	require.Equal(t, "", g.Get("cun-fu"))
}

func TestPulseGrid_SetBlankDeletesKey(t *testing.T) {
	g := models.NewPulseGrid()
	g.Set("guan-zhong", "缓")
	g.Set("guan-zhong", "  ")

	require.Equal(t, "", g.Get("guan-zhong"))
	require.True(t, g.IsEmpty())
}

func TestPulseGrid_IsEmpty(t *testing.T) {
	g := models.PulseGrid{"cun-fu": "   ", "chi-chen": ""}
	require.True(t, g.IsEmpty())

	g.Set(models.OverallDescriptionKey, "脉浮紧")
	require.False(t, g.IsEmpty())
}

func TestPulseGrid_CloneIsIndependent(t *testing.T) {
	g := models.PulseGrid{"cun-fu": "浮"}
	c := g.Clone()
	c.Set("cun-fu", "沉")

	require.Equal(t, "浮", g.Get("cun-fu"))
	require.Equal(t, "沉", c.Get("cun-fu"))
}

func TestDefaults(t *testing.T) {
	require.Equal(t, models.GenderMale, models.NewPatientInfo().Gender)
	require.Equal(t, models.DefaultTotalDosage, models.NewClinicalNote().TotalDosage)
	require.Len(t, models.PulsePositions, 9)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayoutShippedFile(t *testing.T) {
	l, err := LoadLayout("../../config/restaurant.yaml")
	require.NoError(t, err)

	require.Len(t, l.Sections, 4)
	assert.Equal(t, "Lake View", l.Sections[0].Name)
	assert.Equal(t, map[int]int{2: 2, 4: 2, 12: 2}, l.Sections[0].CombineLimits)
	assert.False(t, l.Sections[3].CanCombineTables)

	tables := 0
	for _, s := range l.Sections {
		tables += len(s.Tables)
	}
	assert.Equal(t, 22, tables)
	assert.Equal(t, []string{"Patio", "Rooftop"}, l.Retired())
	assert.NotEmpty(t, l.FAQ)
	require.Len(t, l.Menu, 4)
	assert.Equal(t, "Lake View Lobster Risotto", l.Menu[0].Name)
	assert.True(t, l.Menu[0].Special)
	assert.InDelta(t, 650.0, l.Menu[2].Price, 0.001)
}

func TestLayoutValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "zero capacity",
			yaml: "sections:\n  - {name: A, priority: 1, tables: [{label: '1', capacity: 0}]}\n",
			want: "at least one guest",
		},
		{
			name: "duplicate name",
			yaml: "sections:\n  - {name: A, priority: 1}\n  - {name: a, priority: 2}\n",
			want: "duplicate section",
		},
		{
			name: "shared priority",
			yaml: "sections:\n  - {name: A, priority: 1}\n  - {name: B, priority: 1}\n",
			want: "share priority",
		},
		{
			name: "retired and defined",
			yaml: "sections:\n  - {name: Patio, priority: 1}\nretired_sections: [patio]\n",
			want: "both defined and retired",
		},
		{
			name: "duplicate table label",
			yaml: "sections:\n  - {name: A, priority: 1, tables: [{label: '1', capacity: 2}, {label: '1', capacity: 4}]}\n",
			want: "duplicate table",
		},
		{
			name: "duplicate menu item",
			yaml: "menu:\n  - {name: Soup, price: 5}\n  - {name: soup, price: 6}\n",
			want: "duplicate menu item",
		},
		{
			name: "negative price",
			yaml: "menu:\n  - {name: Soup, price: -1}\n",
			want: "negative price",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLayoutRetiredMergesEnvironment(t *testing.T) {
	l := &Layout{
		Sections:        []SectionSpec{{Name: "Lake View", Priority: 1}, {Name: "Terrace", Priority: 2}},
		RetiredSections: []string{"Rooftop"},
	}
	retired := l.Retired("rooftop", " Terrace ", "")
	assert.Equal(t, []string{"Rooftop", "Terrace"}, retired)

	active := l.ActiveSections(retired)
	require.Len(t, active, 1)
	assert.Equal(t, "Lake View", active[0].Name)
}

package slot

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tbxark/travelpilot/types"
)

func TestValidate_FieldOrder(t *testing.T) {
	t.Parallel()
	res := Validate(types.TravelSlots{Destination: types.Ptr("Osaka")})
	want := []string{"Departure location", "Number of days", "Number of people", "Total budget"}
	if res.IsValid {
		t.Fatal("expected incomplete slots")
	}
	if !reflect.DeepEqual(res.MissingFields, want) {
		t.Fatalf("missing = %q, want %q", res.MissingFields, want)
	}
	if len(res.Missing) != len(want) || res.Missing[0].JSONPointer != "/departure" {
		t.Fatalf("field infos out of step with labels: %+v", res.Missing)
	}
}

func TestValidate_ZeroIsAbsent(t *testing.T) {
	t.Parallel()
	s := types.TravelSlots{
		Departure:   types.Ptr("Hong Kong"),
		Destination: types.Ptr("Osaka"),
		NumDays:     types.Ptr(0),
		NumPeople:   types.Ptr(0),
		Budget:      types.Ptr(0.0),
	}
	res := Validate(s)
	want := []string{"Number of days", "Number of people", "Total budget"}
	if !reflect.DeepEqual(res.MissingFields, want) {
		t.Fatalf("missing = %q, want %q", res.MissingFields, want)
	}
}

func TestValidate_Complete(t *testing.T) {
	t.Parallel()
	s := types.TravelSlots{
		Departure:   types.Ptr("Hong Kong"),
		Destination: types.Ptr("Osaka"),
		NumDays:     types.Ptr(5),
		NumPeople:   types.Ptr(2),
		Budget:      types.Ptr(8000.0),
	}
	res := Validate(s)
	if !res.IsValid || len(res.MissingFields) != 0 {
		t.Fatalf("expected complete, got %+v", res)
	}
}

func TestValidate_BlankPlace(t *testing.T) {
	t.Parallel()
	res := Validate(types.TravelSlots{Departure: types.Ptr("  ")})
	if res.MissingFields[0] != "Departure location" {
		t.Fatalf("blank departure counted as present: %q", res.MissingFields)
	}
}

func TestCheckBounds(t *testing.T) {
	t.Parallel()
	ok := types.TravelSlots{NumDays: types.Ptr(30), NumPeople: types.Ptr(1), Budget: types.Ptr(9_999_999.0), Currency: "JPY", Vibes: []string{"Food", "Culture"}}
	if err := CheckBounds(ok); err != nil {
		t.Fatalf("CheckBounds(valid) = %v", err)
	}
	bad := map[string]types.TravelSlots{
		"days":     {NumDays: types.Ptr(31)},
		"people":   {NumPeople: types.Ptr(0)},
		"budget":   {Budget: types.Ptr(10_000_000.0)},
		"currency": {Currency: "EUR"},
		"vibe":     {Vibes: []string{"Skydiving"}},
		"vibes":    {Vibes: []string{"Food", "Culture", "Nature", "Beach"}},
	}
	for name, s := range bad {
		if err := CheckBounds(s); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: err = %v, want ErrOutOfRange", name, err)
		}
	}
}

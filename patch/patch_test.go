package patch

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/tbxark/travelpilot/internal/fakemodel"
	"github.com/tbxark/travelpilot/slot"
	"github.com/tbxark/travelpilot/types"
)

func TestApplyRFC6902_ReplaceMissingBecomesAdd(t *testing.T) {
	t.Parallel()
	current := types.NewTravelSlots()
	got, err := ApplyRFC6902(current, []Operation{
		{Op: OperationReplace, Path: "/destination", Value: "Kyoto"},
		{Op: OperationRemove, Path: "/departure"},
		{Op: OperationAdd, Path: "/num_days", Value: 4},
	})
	if err != nil {
		t.Fatalf("ApplyRFC6902: %v", err)
	}
	if got.Destination == nil || *got.Destination != "Kyoto" {
		t.Errorf("destination = %v, want Kyoto", got.Destination)
	}
	if got.NumDays == nil || *got.NumDays != 4 {
		t.Errorf("num_days = %v, want 4", got.NumDays)
	}
	if current.Destination != nil {
		t.Error("input slots were mutated")
	}
}

func TestApplyRFC6902_TypeMismatch(t *testing.T) {
	t.Parallel()
	_, err := ApplyRFC6902(types.NewTravelSlots(), []Operation{{Op: OperationAdd, Path: "/num_days", Value: "five"}})
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestApplyRFC6902_ReplaceArrayElement(t *testing.T) {
	t.Parallel()
	current := types.NewTravelSlots()
	current.Vibes = []string{"Food", "Nature"}
	got, err := ApplyRFC6902(current, []Operation{{Op: OperationReplace, Path: "/vibes/0", Value: "Culture"}})
	if err != nil {
		t.Fatalf("ApplyRFC6902: %v", err)
	}
	if !slices.Equal(got.Vibes, []string{"Culture", "Nature"}) {
		t.Errorf("vibes = %v", got.Vibes)
	}
}

func TestApplySlotEdits(t *testing.T) {
	t.Parallel()
	allowed := NewPathSet(AllJSONPointerPaths[types.TravelSlots]()...).Without("/date_range")
	current := types.NewTravelSlots()
	current.Budget = types.Ptr(8000.0)
	current.Currency = "JPY"

	// Clearing the budget resets the currency.
	got, err := ApplySlotEdits(current, []Operation{{Op: OperationRemove, Path: "/budget"}}, allowed)
	if err != nil {
		t.Fatalf("ApplySlotEdits: %v", err)
	}
	if got.Budget != nil || got.Currency != types.DefaultCurrency {
		t.Errorf("budget = %v currency = %s", got.Budget, got.Currency)
	}
	if current.Currency != "JPY" {
		t.Error("input slots were mutated")
	}

	// The party total drives num_people.
	got, err = ApplySlotEdits(current, []Operation{{Op: OperationReplace, Path: "/party/adults", Value: 3}}, allowed)
	if err != nil {
		t.Fatalf("ApplySlotEdits party: %v", err)
	}
	if got.NumPeople == nil || *got.NumPeople != 3 {
		t.Errorf("num_people = %v, want 3", got.NumPeople)
	}

	_, err = ApplySlotEdits(current, []Operation{{Op: OperationAdd, Path: "/num_days", Value: 45}}, allowed)
	if !errors.Is(err, slot.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	if _, err := ApplySlotEdits(current, []Operation{{Op: OperationAdd, Path: "/date_range", Value: "x"}}, allowed); err == nil {
		t.Error("derived path accepted")
	}
}

func TestFormatPathTable(t *testing.T) {
	t.Parallel()
	out := formatPathTable([]string{"/vibes/-", "/departure"}, map[string]string{
		"/departure": "City the trip starts from",
		"/vibes":     "At most 3",
	})
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "/vibes/-") && !strings.Contains(line, "At most 3") {
			t.Errorf("element path did not inherit guidance: %q", line)
		}
	}
	if strings.Index(out, "/departure") > strings.Index(out, "/vibes/-") {
		t.Errorf("paths not sorted:\n%s", out)
	}
	if got := formatPathTable(nil, nil); got != "all (no restriction)" {
		t.Errorf("empty table = %q", got)
	}
}

func TestGeneratePatchesFromInitial(t *testing.T) {
	t.Parallel()
	current := types.NewTravelSlots()
	current.Destination = types.Ptr("Osaka")
	current.NumPeople = types.Ptr(2)

	update := types.TravelSlots{Destination: types.Ptr("Kyoto"), NumDays: types.Ptr(3), NumPeople: types.Ptr(2)}
	ops, err := GeneratePatchesFromInitial(current, update)
	if err != nil {
		t.Fatalf("GeneratePatchesFromInitial: %v", err)
	}
	want := []Operation{
		{Op: OperationReplace, Path: "/destination", Value: "Kyoto"},
		{Op: OperationAdd, Path: "/num_days", Value: float64(3)},
	}
	if len(ops) != len(want) {
		t.Fatalf("ops = %+v, want %+v", ops, want)
	}
	for i := range want {
		if ops[i].Op != want[i].Op || ops[i].Path != want[i].Path || ops[i].Value != want[i].Value {
			t.Errorf("op %d = %+v, want %+v", i, ops[i], want[i])
		}
	}

	got, err := ApplyRFC6902(current, ops)
	if err != nil {
		t.Fatalf("ApplyRFC6902: %v", err)
	}
	if *got.Destination != "Kyoto" || *got.NumDays != 3 || *got.NumPeople != 2 {
		t.Fatalf("unexpected result %+v", types.SlotRows(got))
	}
}

func TestMergeByPresence(t *testing.T) {
	t.Parallel()
	current := types.Itinerary{
		TripOverview: &types.TripOverview{Title: "Osaka Getaway", Location: "Osaka"},
		Hotels:       []types.Hotel{{Name: "Hotel A"}},
	}
	fragment := []byte(`{
		"ai_response": "Here you go",
		"flights": [{"origin": "HKG", "destination": "KIX", "nonstop": true}],
		"hotels": null,
		"trip_overview": {"description": "Food tour", "image_url": null}
	}`)

	got, changed, err := MergeByPresence(current, fragment, types.ItineraryKeys)
	if err != nil {
		t.Fatalf("MergeByPresence: %v", err)
	}
	if !changed {
		t.Fatal("expected a change")
	}
	if len(got.Hotels) != 1 || got.Hotels[0].Name != "Hotel A" {
		t.Errorf("null hotels clobbered existing value: %+v", got.Hotels)
	}
	if len(got.Flights) != 1 || got.Flights[0].Origin != "HKG" {
		t.Errorf("flights not merged: %+v", got.Flights)
	}
	if got.TripOverview.Title != "Osaka Getaway" || got.TripOverview.Description != "Food tour" {
		t.Errorf("trip overview = %+v", got.TripOverview)
	}
}

func TestMergeByPresence_NothingPresent(t *testing.T) {
	t.Parallel()
	current := types.Itinerary{Flights: []types.Flight{{Airline: "CX"}}}
	got, changed, err := MergeByPresence(current, []byte(`{"ai_response":"hi"}`), types.ItineraryKeys)
	if err != nil || changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if got.Flights[0].Airline != "CX" {
		t.Fatal("itinerary changed without itinerary keys")
	}
}

func TestAllJSONPointerPaths(t *testing.T) {
	t.Parallel()
	paths := AllJSONPointerPaths[types.TravelSlots]()
	for _, want := range []string{"/departure", "/num_days", "/vibes", "/vibes/-", "/party/adults", "/start_date"} {
		if !slices.Contains(paths, want) {
			t.Errorf("missing path %s in %v", want, paths)
		}
	}
	if slices.Contains(paths, "/start_date/wall") {
		t.Error("time.Time internals leaked into paths")
	}
}

func TestValidatePatchOperations(t *testing.T) {
	t.Parallel()
	allowed := NewPathSet(AllJSONPointerPaths[types.TravelSlots]()...).Without("/date_range")
	if err := ValidatePatchOperations([]Operation{{Op: OperationAdd, Path: "/vibes/0", Value: "Food"}}, allowed); err != nil {
		t.Errorf("wildcard path rejected: %v", err)
	}
	if err := ValidatePatchOperations([]Operation{{Op: OperationReplace, Path: "/date_range", Value: "x"}}, allowed); err == nil {
		t.Error("derived path accepted")
	}
	if err := ValidatePatchOperations([]Operation{{Op: "move", Path: "/departure"}}, allowed); err == nil {
		t.Error("unsupported op accepted")
	}
}

func TestToolBasedPatchGenerator(t *testing.T) {
	t.Parallel()
	model := fakemodel.New(fakemodel.ToolCall(updateSlotsToolName, `{"ops":[{"op":"replace","path":"/destination","value":"Kyoto"}]}`))
	g, err := NewToolBasedPatchGenerator(model)
	if err != nil {
		t.Fatalf("NewToolBasedPatchGenerator: %v", err)
	}
	args, err := g.GeneratePatch(context.Background(), &Request{
		Instruction:  "actually make it Kyoto",
		CurrentState: types.TravelSlots{Destination: types.Ptr("Osaka")},
		AllowedPaths: []string{"/destination"},
	})
	if err != nil {
		t.Fatalf("GeneratePatch: %v", err)
	}
	if len(args.Ops) != 1 || args.Ops[0].Value != "Kyoto" {
		t.Fatalf("ops = %+v", args.Ops)
	}

	bad := fakemodel.New(fakemodel.ToolCall(updateSlotsToolName, `{"ops":[{"op":"replace","path":"/date_range","value":"x"}]}`))
	g, _ = NewToolBasedPatchGenerator(bad)
	if _, err := g.GeneratePatch(context.Background(), &Request{AllowedPaths: []string{"/destination"}}); err == nil {
		t.Fatal("expected disallowed path error")
	}
}

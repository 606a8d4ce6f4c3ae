package matching

import (
	"testing"

	"pronto/internal/modules/directory"
	"pronto/internal/types"
)

func baseCriteria() MatchCriteria {
	return MatchCriteria{
		ServiceType: types.ServiceJunkRemoval,
		Load:        types.LoadMedium,
	}
}

func basePro() directory.Pro {
	return directory.Pro{
		ID:            "p1",
		Available:     true,
		ServiceTypes:  []types.ServiceType{types.ServiceJunkRemoval},
		Rating:        4.0,
		JobsCompleted: 10,
		ReviewCount:   10,
	}
}

func TestScore_DefaultRating(t *testing.T) {
	p := basePro()
	p.Rating = 0 // unrated
	got := Score(baseCriteria(), p)
	// 4.0 default * 20 + completion 10/10*10 = 90
	if got != 90 {
		t.Fatalf("unrated pro score = %f, want 90", got)
	}
}

func TestScore_CompletionRatioCapped(t *testing.T) {
	p := basePro()
	p.JobsCompleted = 500
	p.ReviewCount = 10
	got := Score(baseCriteria(), p)
	// rating 80 + capped completion 50
	if got != 130 {
		t.Fatalf("score = %f, want 130 (completion capped at 50)", got)
	}
}

func TestScore_ZeroReviewsDivisorFloor(t *testing.T) {
	p := basePro()
	p.JobsCompleted = 3
	p.ReviewCount = 0
	got := Score(baseCriteria(), p)
	// rating 80 + min(3/1*10, 50) = 110
	if got != 110 {
		t.Fatalf("score = %f, want 110", got)
	}
}

func TestScore_ProximityClampedAtZero(t *testing.T) {
	c := baseCriteria()
	c.Pickup = &types.Point{Lat: 28.5383, Lng: -81.3792}
	far := basePro()
	far.Location = &types.Point{Lat: 40.7128, Lng: -74.0060} // ~940mi away
	near := basePro()
	near.Location = &types.Point{Lat: 28.5383, Lng: -81.3792}

	if Score(c, far) != Score(baseCriteria(), basePro()) {
		t.Fatal("distance beyond 30mi must contribute exactly 0")
	}
	if got, want := Score(c, near), Score(baseCriteria(), basePro())+30; got != want {
		t.Fatalf("co-located pro score = %f, want %f", got, want)
	}
}

func TestScore_VehicleCapacity(t *testing.T) {
	c := baseCriteria()
	c.Load = types.LoadLarge // rank 3

	tests := []struct {
		vehicle types.VehicleType
		bonus   float64
	}{
		{types.VehiclePickupTruck, 0}, // rank 1 < 3
		{types.VehicleCargoVan, 0},    // rank 2 < 3
		{types.VehicleBoxTruck, 10},   // rank 3
		{types.VehicleFlatbed, 10},    // rank 4
		{types.VehicleTrailer, 10},    // rank 5
		{"", 0},                       // unknown vehicle
	}
	base := basePro()
	want := Score(c, base)
	for _, tt := range tests {
		p := base
		p.VehicleType = tt.vehicle
		if got := Score(c, p); got != want+tt.bonus {
			t.Errorf("vehicle %q: score = %f, want %f", tt.vehicle, got, want+tt.bonus)
		}
	}
}

func TestScore_LanguageAndLoyaltyAndVerified(t *testing.T) {
	c := baseCriteria()
	c.PreferredLanguage = "es"

	p := basePro()
	p.Languages = []string{"en", "es"}
	p.Verified = true
	p.PriorityBoost = true

	base := Score(MatchCriteria{ServiceType: c.ServiceType, Load: c.Load}, basePro())
	if got, want := Score(c, p), base+25+15+20; got != want {
		t.Fatalf("score = %f, want %f", got, want)
	}
}

// TestScore_Monotonic verifies that improving any single attribute never
// lowers the score.
func TestScore_Monotonic(t *testing.T) {
	c := baseCriteria()
	base := basePro()
	baseScore := Score(c, base)

	improvements := []struct {
		name  string
		apply func(p *directory.Pro)
	}{
		{"higher rating", func(p *directory.Pro) { p.Rating = 5.0 }},
		{"more completed jobs", func(p *directory.Pro) { p.JobsCompleted += 20 }},
		{"verified", func(p *directory.Pro) { p.Verified = true }},
		{"loyalty boost", func(p *directory.Pro) { p.PriorityBoost = true }},
		{"bigger vehicle", func(p *directory.Pro) { p.VehicleType = types.VehicleTrailer }},
	}
	for _, imp := range improvements {
		p := base
		imp.apply(&p)
		if got := Score(c, p); got < baseScore {
			t.Errorf("%s lowered score: %f < %f", imp.name, got, baseScore)
		}
	}
}

package optimize

import "testing"

func TestPlanDimensions(t *testing.T) {
	tests := []struct {
		name               string
		sw, sh, maxW, maxH int
		want               Dimensions
	}{
		{"landscape bound by width", 1000, 500, 480, 480, Dimensions{480, 240}},
		{"portrait bound by height", 300, 900, 480, 480, Dimensions{160, 480}},
		{"never upscaled", 100, 50, 480, 480, Dimensions{100, 50}},
		{"floor applied", 333, 333, 100, 200, Dimensions{100, 100}},
		{"odd ratio floors", 640, 427, 480, 480, Dimensions{480, 320}},
		{"extreme bound keeps one pixel", 4000, 10, 100, 100, Dimensions{100, 1}},
		{"one by one bounds", 500, 300, 1, 1, Dimensions{1, 1}},
		{"exact fit", 480, 480, 480, 480, Dimensions{480, 480}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanDimensions(tt.sw, tt.sh, tt.maxW, tt.maxH); got != tt.want {
				t.Errorf("PlanDimensions(%d, %d, %d, %d) = %+v, want %+v",
					tt.sw, tt.sh, tt.maxW, tt.maxH, got, tt.want)
			}
		})
	}
}

func TestPlanDimensions_Bounds(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 10, 99, 480, 481, 1000, 1919}
	for _, sw := range sizes {
		for _, sh := range sizes {
			for _, maxW := range sizes {
				for _, maxH := range sizes {
					got := PlanDimensions(sw, sh, maxW, maxH)
					if got.Width < 1 || got.Height < 1 {
						t.Fatalf("PlanDimensions(%d, %d, %d, %d) = %+v has a zero side", sw, sh, maxW, maxH, got)
					}
					if got.Width > sw || got.Height > sh {
						t.Fatalf("PlanDimensions(%d, %d, %d, %d) = %+v exceeds the source", sw, sh, maxW, maxH, got)
					}
				}
			}
		}
	}
}

package dataset

// Record is one labeled evaluation case: up to three view image paths
// (relative to the dataset's image directory) and the expected arch
// classification from a human reviewer.
type Record struct {
	ID string `json:"id" parquet:"id"`

	TopImage  string `json:"top_image" parquet:"top_image"`
	SideImage string `json:"side_image" parquet:"side_image"`
	BackImage string `json:"back_image" parquet:"back_image"`

	// Ground truth
	ExpectedArch string `json:"expected_arch" parquet:"expected_arch"`

	Notes string `json:"notes" parquet:"notes"`
}

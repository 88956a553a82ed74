package terminology

// DefaultStore returns the compiled-in reference tables: a working subset of
// CPT, ICD-10, NCCI PTP, MUE, payer, and coverage data sufficient for common
// ambulatory encounters. Deployments with jurisdiction-specific tables load a
// YAML override instead.
func DefaultStore() *Store {
	return &Store{
		Procedures: map[string]ProcedureCode{
			// E/M codes
			"99203": {Description: "Office/outpatient E/M, new patient", MUELimit: 1},
			"99204": {Description: "Office/outpatient E/M, new patient", MUELimit: 1},
			"99205": {Description: "Office/outpatient E/M, new patient", MUELimit: 1},
			"99213": {Description: "Office visit established patient", MUELimit: 1},
			"99214": {Description: "Office/outpatient E/M, established patient", MUELimit: 1},
			"99215": {Description: "Office/outpatient E/M, established patient", MUELimit: 1},
			"99282": {Description: "Emergency department visit", MUELimit: 1},
			"99283": {Description: "Emergency department visit", MUELimit: 1},
			"99284": {Description: "Emergency department visit", MUELimit: 1},

			// Diagnostic tests
			"93000": {Description: "ECG, routine 12-lead with interp and report", MUELimit: 1},
			"71020": {Description: "Chest X-ray", MUELimit: 4},
			"80053": {Description: "Comprehensive metabolic panel", MUELimit: 1},
			"85025": {Description: "Complete blood count with differential", MUELimit: 1},
			"36415": {Description: "Venipuncture", MUELimit: 3},

			// Procedures
			"12001": {Description: "Simple repair superficial wound", MUELimit: 35},
			"17110": {Description: "Destruction benign lesion", MUELimit: 14},
			"90471": {Description: "Immunization administration", MUELimit: 6},
			"90715": {Description: "Tetanus, diphtheria toxoids vaccine", MUELimit: 1},
		},

		Diagnoses: map[string]string{
			"R00.2":   "Palpitations",
			"R05":     "Cough",
			"R06.02":  "Shortness of breath",
			"R07.89":  "Other chest pain",
			"R10.9":   "Unspecified abdominal pain",
			"R11.10":  "Vomiting, unspecified",
			"R50.9":   "Fever unspecified",
			"R51.9":   "Headache, unspecified",
			"Z23":     "Encounter for immunization",
			"I10":     "Essential hypertension",
			"E11.9":   "Type 2 diabetes mellitus without complications",
			"J00":     "Acute nasopharyngitis [common cold]",
			"J02.9":   "Acute pharyngitis, unspecified",
			"S61.401A": "Unspecified open wound of right hand, initial encounter",
			"L03.90":  "Cellulitis, unspecified",
			"K59.00":  "Constipation, unspecified",
			"M25.50":  "Pain in unspecified joint",
			"N39.0":   "Urinary tract infection, site not specified",
		},

		TermCodes: map[string][]string{
			// Symptoms to ICD-10
			"palpitation":             {"R00.2"},
			"palpitations":            {"R00.2"},
			"chest pain":              {"R07.89"},
			"shortness of breath":     {"R06.02"},
			"dyspnea":                 {"R06.02"},
			"fever":                   {"R50.9"},
			"headache":                {"R51.9"},
			"nausea":                  {"R11.10"},
			"vomiting":                {"R11.10"},
			"abdominal pain":          {"R10.9"},
			"joint pain":              {"M25.50"},
			"wound":                   {"S61.401A"},
			"laceration":              {"S61.401A"},
			"uti":                     {"N39.0"},
			"urinary tract infection": {"N39.0"},

			// Procedures to CPT
			"ecg":                   {"93000"},
			"ekg":                   {"93000"},
			"electrocardiogram":     {"93000"},
			"chest x-ray":           {"71020"},
			"chest xray":            {"71020"},
			"cxr":                   {"71020"},
			"blood draw":            {"36415"},
			"venipuncture":          {"36415"},
			"suture":                {"12001"},
			"repair":                {"12001"},
			"immunization":          {"90471"},
			"vaccination":           {"90471"},
			"vaccine":               {"90471"},
			"cbc":                   {"85025"},
			"complete blood count":  {"85025"},
			"metabolic panel":       {"80053"},
			"comprehensive metabolic": {"80053"},
		},

		Bundling: []BundlingRule{
			{Primary: "99213", Secondary: "93000", Bundled: false, ModifierAllowed: true, Modifiers: []string{"25"}},
			{Primary: "99213", Secondary: "36415", Bundled: false, ModifierAllowed: true, Modifiers: []string{"25"}},
			{Primary: "99214", Secondary: "12001", Bundled: false, ModifierAllowed: true, Modifiers: []string{"25"}},
			{Primary: "12001", Secondary: "17110", Bundled: true, ModifierAllowed: true, Modifiers: []string{"59", "XS"}},
			{Primary: "93000", Secondary: "71020", Bundled: false, ModifierAllowed: false, Modifiers: nil},
		},

		Modifiers: map[string]string{
			"25": "Significant, separately identifiable E/M service",
			"59": "Distinct procedural service",
			"XS": "Separate structure",
			"XU": "Unusual non-overlapping service",
			"50": "Bilateral procedure",
			"RT": "Right side",
			"LT": "Left side",
			"76": "Repeat procedure by same physician",
			"77": "Repeat procedure by another physician",
			"GT": "Synchronous telemedicine service",
			"95": "Synchronous telemedicine service",
		},

		Payers: map[string]PayerPolicy{
			"Medicare": {
				BilateralPreference: "50",
				TelehealthModifiers: []string{"95", "GT"},
				FrequencyLimits: map[string]FrequencyLimit{
					"93000": {PerYear: 12},
				},
			},
			"GenericPPO": {
				BilateralPreference: "RT_LT",
				TelehealthModifiers: []string{"95"},
				FrequencyLimits:     map[string]FrequencyLimit{},
			},
			"Medicaid": {
				BilateralPreference: "RT_LT",
				TelehealthModifiers: []string{"GT"},
				FrequencyLimits: map[string]FrequencyLimit{
					"17110": {PerVisit: 3},
				},
			},
		},

		Coverage: map[string]CoveragePolicy{
			"ECG_ROUTINE": {
				PolicyID:              "L33832",
				Codes:                 []string{"93000"},
				CoveredICD10:          []string{"R00.2", "I10", "R06.02", "R07.89"},
				Frequency:             FrequencyLimit{PerYear: 12},
				DocumentationRequired: []string{"indication", "interpretation"},
			},
			"CHEST_XRAY": {
				PolicyID:              "L34542",
				Codes:                 []string{"71020"},
				CoveredICD10:          []string{"R06.02", "R05", "J44.1", "Z87.891"},
				Frequency:             FrequencyLimit{PerEpisode: 1},
				DocumentationRequired: []string{"indication", "findings"},
			},
		},
	}
}

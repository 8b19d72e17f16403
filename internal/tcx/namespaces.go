package tcx

// Namespaces is the prefix-to-URI table declared on the document root.
// Build one with GarminNamespaces at startup and share it; it is never mutated.
type Namespaces struct {
	Default           string
	UserProfile       string // ns2
	ActivityExtension string // ns3, used by Lap extensions
	ProfileExtension  string // ns4
	ActivityGoals     string // ns5
	SchemaInstance    string // xsi
	SchemaLocation    string
}

// GarminNamespaces returns the Training Center Database v2 namespace set.
func GarminNamespaces() *Namespaces {
	return &Namespaces{
		Default:           "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2",
		UserProfile:       "http://www.garmin.com/xmlschemas/UserProfile/v2",
		ActivityExtension: "http://www.garmin.com/xmlschemas/ActivityExtension/v2",
		ProfileExtension:  "http://www.garmin.com/xmlschemas/ProfileExtension/v1",
		ActivityGoals:     "http://www.garmin.com/xmlschemas/ActivityGoals/v1",
		SchemaInstance:    "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2 " +
			"http://www.garmin.com/xmlschemas/TrainingCenterDatabasev2.xsd",
	}
}

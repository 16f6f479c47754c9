package synth

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	givenNames = []string{
		"James", "Mary", "Robert", "Patricia", "Michael", "Linda", "David", "Susan",
		"Thomas", "Sarah", "Daniel", "Laura", "Paul", "Helen", "Mark", "Anna",
		"Jean", "Marie", "Pierre", "Sophie", "Julien", "Claire", "Hugo", "Camille",
	}
	familyNames = []string{
		"Smith", "Johnson", "Brown", "Taylor", "Wilson", "Clark", "Walker", "Hall",
		"Young", "King", "Wright", "Hill", "Martin", "Dubois", "Moreau", "Laurent",
		"Fournier", "Girard", "Lambert", "Bonnet", "Rousseau", "Blanc", "Faure", "Roux",
	}
)

// patientName returns a DICOM PN value, FAMILY^Given.
func patientName(rng *rand.Rand) string {
	given := givenNames[rng.IntN(len(givenNames))]
	family := familyNames[rng.IntN(len(familyNames))]
	return strings.ToUpper(family) + "^" + given
}

// patientID returns a hospital-style identifier such as "RT482913".
func patientID(rng *rand.Rand) string {
	return fmt.Sprintf("RT%06d", rng.IntN(1000000))
}

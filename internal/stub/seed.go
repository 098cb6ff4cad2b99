package stub

import (
	"fmt"
	"time"

	"github.com/careloop/clinic-booking/internal/appointments"
	"github.com/careloop/clinic-booking/internal/catalog"
)

var seedNames = [][2]string{
	{"Ana", "Silva"},
	{"Pierre", "Moreau"},
	{"Greta", "Keller"},
	{"Lucia", "Moreno"},
	{"Jean", "Bernard"},
	{"Marta", "Weiss"},
}

// Seed registers two doctors per specialty, rotating through the catalog's
// cities and languages, each with two weeks of published availability.
func (s *Server) Seed() {
	now := s.now()
	slots := catalog.GenerateSlots(now.Add(24*time.Hour), 14)

	i := 0
	for _, specialty := range catalog.Specialties {
		for n := 0; n < 2; n++ {
			name := seedNames[i%len(seedNames)]
			s.AddDoctor(appointments.DoctorRecord{
				UserID:    fmt.Sprintf("doc-%03d", i+1),
				FirstName: name[0],
				LastName:  name[1],
				Profile: appointments.DoctorProfile{
					Specialty: specialty,
					City:      catalog.CityOptions[i%len(catalog.CityOptions)],
					Languages: []string{
						catalog.LanguageOptions[i%len(catalog.LanguageOptions)],
						catalog.LanguageOptions[(i+1)%len(catalog.LanguageOptions)],
					},
					AvailSlots: slots,
				},
			})
			i++
		}
	}
	s.logger.Info("sandbox seeded", "doctors", i, "slots_per_doctor", len(slots))
}

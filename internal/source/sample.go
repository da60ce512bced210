package source

import (
	"fmt"
	"time"

	"github.com/rsilvagit/go-empleo/internal/model"
)

var (
	sampleTitles = []string{
		"Desarrollador Backend Go", "Desarrolladora Frontend React", "Ingeniero de Datos",
		"Analista QA", "Desarrollador Full Stack", "DevOps Engineer",
		"Diseñadora UX/UI", "Product Manager", "Científico de Datos", "Desarrollador Móvil",
	}
	sampleCompanies = []string{"Acme Tech", "Globant", "Cabify", "Mercado Libre", "Typeform", "Glovo"}
	sampleCities    = []string{"Madrid", "Barcelona", "Valencia", "Ciudad de México", "Buenos Aires", "Lima", "Bogotá"}
	sampleSkills    = [][]string{
		{"go", "postgresql", "docker"},
		{"react", "typescript", "css"},
		{"python", "spark", "sql"},
		{"selenium", "cypress"},
		{"node", "react", "mongodb"},
		{"kubernetes", "terraform", "aws"},
		{"figma", "research"},
		{"scrum", "roadmaps"},
		{"python", "pytorch", "estadística"},
		{"kotlin", "swift"},
	}
)

// Sample builds n deterministic postings for offline use. Ids run from 1.
func Sample(n int, now time.Time) []model.JobPosting {
	jobs := make([]model.JobPosting, n)
	for i := range n {
		title := sampleTitles[i%len(sampleTitles)]
		skills := sampleSkills[i%len(sampleSkills)]
		remote := i%3 == 0
		posted := now.AddDate(0, 0, -(i % 30))

		job := model.JobPosting{
			ID:          model.JobID(fmt.Sprint(i + 1)),
			Title:       title,
			Company:     sampleCompanies[i%len(sampleCompanies)],
			Location:    sampleCities[i%len(sampleCities)],
			Type:        model.EmploymentTypes[i%4],
			Description: fmt.Sprintf("<p>Buscamos un perfil de <b>%s</b> para unirse al equipo.</p>", title),
			Skills:      skills,
			PostedDate:  posted.Format("2006-01-02"),
			Deadline:    posted.AddDate(0, 1, 0).Format("2006-01-02"),
			Remote:      &remote,
		}
		if i%4 != 3 {
			base := float64(20000 + (i%8)*5000)
			job.Salary = &model.Salary{Min: base, Max: base + 15000, Currency: "EUR"}
		}
		jobs[i] = job
	}
	return jobs
}

package remote

import (
	"sort"
	"strings"
)

// searchColumns are matched by ListQuery.Search.
var searchColumns = []string{"nome_completo", "cpf", "cidade"}

// Stats summarizes the stored submissions.
type Stats struct {
	Total    int
	ByStatus map[string]int
	ByRegion []RegionCount
}

// RegionCount is the number of submissions from one city.
type RegionCount struct {
	Cidade string
	Estado string
	Total  int
}

func (s *Stats) add(status, cidade, estado string, n int) {
	if n <= 0 {
		return
	}
	if s.ByStatus == nil {
		s.ByStatus = make(map[string]int)
	}
	s.Total += n
	s.ByStatus[strings.ToLower(strings.TrimSpace(status))] += n

	cidade = strings.TrimSpace(cidade)
	estado = strings.ToUpper(strings.TrimSpace(estado))
	for i := range s.ByRegion {
		r := &s.ByRegion[i]
		if strings.EqualFold(r.Cidade, cidade) && r.Estado == estado {
			r.Total += n
			return
		}
	}
	s.ByRegion = append(s.ByRegion, RegionCount{Cidade: cidade, Estado: estado, Total: n})
}

// finish orders regions by volume, then by state and city.
func (s *Stats) finish() {
	sort.SliceStable(s.ByRegion, func(i, j int) bool {
		a, b := s.ByRegion[i], s.ByRegion[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Estado != b.Estado {
			return a.Estado < b.Estado
		}
		return a.Cidade < b.Cidade
	})
}

// searchTerm strips characters that would break a PostgREST or() filter.
func searchTerm(raw string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '%':
			return -1
		}
		return r
	}, raw))
}

// likePattern escapes LIKE wildcards and wraps term for a substring match.
func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

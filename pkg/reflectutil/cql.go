package reflectutil

import (
	"reflect"
	"sort"

	"github.com/BillixOfficial/rewards-backend/pkg/stringutil"
)

// GetColumnNames derives the cql column names of an entity from its field
// names.
func GetColumnNames(i any) []string {
	result := []string{}
	val := reflect.ValueOf(i).Elem()
	for i := 0; i < val.NumField(); i++ {
		name := val.Type().Field(i).Name
		name = stringutil.ToSnakeCase(name)
		result = append(result, name)
	}
	sort.Strings(result)

	return result
}

package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/gomega"

	"github.com/autoperception/dataset-explorer/auth"
	"github.com/autoperception/dataset-explorer/rest/models"
	"github.com/autoperception/dataset-explorer/types"
)

const Prefix = "/api"

// User is sent in the user header of every request
const User = "integration"

func ExecuteGet(routes []types.Route, routeFormat string, responsePtr interface{}, values ...interface{}) int {
	return execute(http.MethodGet, routes, routeFormat, nil, "", responsePtr, values...)
}

// ExecuteGetWithQuery performs a GET request with the query string built from query
func ExecuteGetWithQuery(
	routes []types.Route,
	routeFormat string,
	query url.Values,
	responsePtr interface{},
	values ...interface{},
) int {
	return execute(http.MethodGet, routes, routeFormat, query, "", responsePtr, values...)
}

func ExecutePost(
	routes []types.Route,
	routeFormat string,
	requestBody string,
	responsePtr interface{},
	values ...interface{},
) int {
	return execute(http.MethodPost, routes, routeFormat, nil, requestBody, responsePtr, values...)
}

func execute(
	method string,
	routes []types.Route,
	routeFormat string,
	query url.Values,
	requestBody string,
	responsePtr interface{},
	values ...interface{},
) int {
	if responsePtr != nil && reflect.ValueOf(responsePtr).Kind() != reflect.Ptr {
		panic("Provided value should be a pointer or nil")
	}

	target := url.URL{Path: path.Join(Prefix, fmt.Sprintf(routeFormat, values...))}
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if requestBody != "" {
		body = strings.NewReader(requestBody)
	}

	r := httptest.NewRequest(method, target.String(), body)
	r.Header.Set(auth.UserHeader, User)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	// httprouter populates the params the handlers read from the context
	route := lookupRoute(routes, method, routeFormat)
	router := httprouter.New()
	router.Handler(method, route.Pattern, auth.NewUserHandler(route.Handler))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code/100 != 2 && responsePtr != nil {
		if _, ok := responsePtr.(*models.ModelError); !ok {
			panic(fmt.Sprintf("unexpected http error %d: %s", w.Code, w.Body))
		}
	}

	if responsePtr != nil && w.Body.Len() > 0 {
		bodyBytes := w.Body.Bytes()
		err := json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(responsePtr)
		Expect(err).ToNot(HaveOccurred(),
			fmt.Sprintf("Error decoding response with code %d and body: %s", w.Code, bodyBytes))
	}

	return w.Code
}

// lookupRoute finds the route registered for the path format, %s standing for a named param
func lookupRoute(routes []types.Route, method, format string) types.Route {
	re := regexp.MustCompile(strings.Replace(regexp.QuoteMeta(format), `%s`, `:\w+`, -1) + `$`)
	for _, route := range routes {
		if route.Method == method && re.MatchString(route.Pattern) {
			return route
		}
	}

	panic(fmt.Sprintf("route not found: %s %s", method, format))
}

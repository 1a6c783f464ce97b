package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Variation Commons Variant Source Service"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the variant source API!"
	SERVICE_DESCRIPTION ServiceInfo = "Persists variant sources (VCF file provenance, samples and header metadata) into a document store."

	SERVICE_ARTIFACT    ServiceInfo = "variant-sources"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("org.variation-commons:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
)

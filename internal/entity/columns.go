package entity

import "realtypress-graphql/internal/sqltype"

const (
	str     = sqltype.TypeString
	integer = sqltype.TypeInt
	float   = sqltype.TypeFloat
	boolean = sqltype.TypeBoolean
)

// Column orders follow the RealtyPress table layouts.

var propertyColumns = []Column{
	{"property_id", str},
	{"PostID", str},
	{"Offices", str},
	{"Agents", str},
	{"Board", str},
	{"ListingID", str},
	{"DdfListingID", str},
	{"LastUpdated", str},
	{"Latitude", str},
	{"Longitude", str},
	{"AmmenitiesNearBy", str},
	{"CommunicationType", str},
	{"CommunityFeatures", str},
	{"Crop", str},
	{"DocumentType", str},
	{"EquipmentType", str},
	{"Easement", str},
	{"FarmType", str},
	{"Features", str},
	{"IrrigationType", str},
	{"Lease", str},
	{"LeasePerTime", str},
	{"LeasePerUnit", str},
	{"LeaseTermRemaining", str},
	{"LeaseTermRemainingFreq", str},
	{"LeaseType", str},
	{"ListingContractDate", str},
	{"LiveStockType", str},
	{"LoadingType", str},
	{"LocationDescription", str},
	{"Machinery", str},
	{"MaintenanceFee", str},
	{"MaintenanceFeePaymentUnit", str},
	{"MaintenanceFeeType", str},
	{"ManagementCompany", str},
	{"MunicipalID", str},
	{"OwnershipType", str},
	{"ParkingSpaceTotal", integer},
	{"Plan", str},
	{"PoolType", str},
	{"PoolFeatures", str},
	{"Price", float},
	{"PricePerTime", str},
	{"PricePerUnit", str},
	{"PropertyType", str},
	{"PublicRemarks", str},
	{"RentalEquipmentType", str},
	{"RightType", str},
	{"RoadType", str},
	{"StorageType", str},
	{"Structure", str},
	{"SignType", str},
	{"TransactionType", str},
	{"TotalBuildings", integer},
	{"ViewType", str},
	{"WaterFrontType", str},
	{"WaterFrontName", str},
	{"AdditionalInformationIndicator", boolean},
	{"ZoningDescription", str},
	{"ZoningType", str},
	{"MoreInformationLink", str},
	{"AnalyticsClick", integer},
	{"AnalyticsView", integer},
	{"BusinessType", str},
	{"BusinessSubType", str},
	{"EstablishedDate", str},
	{"Franchise", str},
	{"Name", str},
	{"OperatingSince", str},
	{"BathroomTotal", integer},
	{"BedroomsAboveGround", integer},
	{"BedroomsBelowGround", integer},
	{"BedroomsTotal", integer},
	{"Age", integer},
	{"Amenities", str},
	{"Amperage", str},
	{"Anchor", str},
	{"Appliances", str},
	{"ArchitecturalStyle", str},
	{"BasementDevelopment", str},
	{"BasementFeatures", str},
	{"BasementType", str},
	{"BomaRating", str},
	{"CeilingHeight", str},
	{"CeilingType", str},
	{"ClearCeilingHeight", str},
	{"ConstructedDate", str},
	{"ConstructionMaterial", str},
	{"ConstructionStatus", str},
	{"ConstructionStyleAttachment", str},
	{"ConstructionStyleOther", str},
	{"ConstructionStyleSplitLevel", str},
	{"CoolingType", str},
	{"EnerguideRating", str},
	{"ExteriorFinish", str},
	{"FireProtection", str},
	{"FireplaceFuel", str},
	{"FireplacePresent", boolean},
	{"FireplaceTotal", integer},
	{"FireplaceType", str},
	{"Fixture", str},
	{"FlooringType", str},
	{"FoundationType", str},
	{"HalfBathTotal", integer},
	{"HeatingFuel", str},
	{"HeatingType", str},
	{"LeedsCategory", str},
	{"LeedsRating", str},
	{"RenovatedDate", str},
	{"RoofMaterial", str},
	{"RoofStyle", str},
	{"StoriesTotal", integer},
	{"SizeExterior", str},
	{"SizeInterior", str},
	{"SizeInteriorFinished", str},
	{"StoreFront", str},
	{"TotalFinishedArea", str},
	{"Type", str},
	{"Uffi", str},
	{"UnitType", str},
	{"UtilityPower", str},
	{"UtilityWater", str},
	{"VacancyRate", str},
	{"SizeTotal", str},
	{"SizeTotalText", str},
	{"SizeFrontage", str},
	{"AccessType", str},
	{"Acreage", str},
	{"LandAmenities", str},
	{"ClearedTotal", str},
	{"CurrentUse", str},
	{"Divisible", boolean},
	{"FenceTotal", str},
	{"FenceType", str},
	{"FrontsOn", str},
	{"LandDisposition", str},
	{"LandscapeFeatures", str},
	{"PastureTotal", str},
	{"Sewer", str},
	{"SizeDepth", str},
	{"SizeIrregular", str},
	{"SoilEvaluation", str},
	{"SoilType", str},
	{"SurfaceWater", str},
	{"TiledTotal", str},
	{"TopographyType", str},
	{"StreetAddress", str},
	{"AddressLine1", str},
	{"AddressLine2", str},
	{"StreetNumber", str},
	{"StreetName", str},
	{"StreetSuffix", str},
	{"StreetDirectionSuffix", str},
	{"UnitNumber", str},
	{"City", str},
	{"Province", str},
	{"PostalCode", str},
	{"Country", str},
	{"AdditionalStreetInfo", str},
	{"CommunityName", str},
	{"Neighbourhood", str},
	{"Subdivision", str},
	{"Utilities", str},
	{"Parking", str},
	{"OpenHouse", str},
	{"AlternateURL", str},
	{"CustomListing", boolean},
	{"Sold", boolean},
	{"GeoLastUpdated", str},
	{"GeoSource", str},
	{"LiveStream", str},
}

var propertyPhotoColumns = []Column{
	{"details_id", str},
	{"ListingID", str},
	{"SequenceID", integer},
	{"Description", str},
	{"Photos", str},
	{"LastUpdated", str},
	{"PhotoLastUpdated", str},
	{"CustomPhoto", boolean},
}

var propertyRoomColumns = []Column{
	{"room_id", str},
	{"ListingID", str},
	{"Type", str},
	{"Width", str},
	{"Length", str},
	{"Level", str},
	{"Dimension", str},
	{"CustomRoom", boolean},
}

var realtyAgentColumns = []Column{
	{"agent_id", str},
	{"AgentID", str},
	{"OfficeID", str},
	{"Name", str},
	{"ID", str},
	{"LastUpdated", str},
	{"Position", str},
	{"EducationCredentials", str},
	{"Photos", str},
	{"PhotoLastUpdated", str},
	{"Specialties", str},
	{"Specialty", str},
	{"Languages", str},
	{"Language", str},
	{"TradingAreas", str},
	{"TradingArea", str},
	{"Phones", str},
	{"Websites", str},
	{"Designations", str},
	{"CustomAgent", boolean},
	{"Email", str},
}

var realtyOfficeColumns = []Column{
	{"office_id", str},
	{"OfficeID", str},
	{"Name", str},
	{"ID", str},
	{"LastUpdated", str},
	{"LogoLastUpdated", str},
	{"Logos", str},
	{"OrganizationType", str},
	{"Designation", str},
	{"Address", str},
	{"Franchisor", str},
	{"StreetAddress", str},
	{"AddressLine1", str},
	{"AddressLine2", str},
	{"City", str},
	{"Province", str},
	{"PostalCode", str},
	{"Country", str},
	{"AdditionalStreetInfo", str},
	{"CommunityName", str},
	{"Neighbourhood", str},
	{"Subdivision", str},
	{"Phones", str},
	{"Websites", str},
	{"CustomOffice", boolean},
}

var realtyBoardColumns = []Column{
	{"OrganizationID", integer},
	{"ShortName", str},
	{"LongName", str},
}

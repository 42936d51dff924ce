package lazy

// Classifier paths of the core metamodel.
const (
	PackageClassifier            = "Package"
	ClassClassifier              = "meta::pure::metamodel::type::Class"
	PropertyClassifier           = "meta::pure::metamodel::function::property::Property"
	QualifiedPropertyClassifier  = "meta::pure::metamodel::function::property::QualifiedProperty"
	AssociationClassifier        = "meta::pure::metamodel::relationship::Association"
	EnumerationClassifier        = "meta::pure::metamodel::type::Enumeration"
	EnumClassifier               = "meta::pure::metamodel::type::Enum"
	FunctionClassifier           = "meta::pure::metamodel::function::ConcreteFunctionDefinition"
	NativeFunctionClassifier     = "meta::pure::metamodel::function::NativeFunction"
	FunctionExpressionClassifier = "meta::pure::metamodel::valuespecification::SimpleFunctionExpression"
	InstanceValueClassifier      = "meta::pure::metamodel::valuespecification::InstanceValue"
	GeneralizationClassifier     = "meta::pure::metamodel::relationship::Generalization"
	GenericTypeClassifier        = "meta::pure::metamodel::type::generics::GenericType"
	MultiplicityClassifier       = "meta::pure::metamodel::multiplicity::Multiplicity"
	ProfileClassifier            = "meta::pure::metamodel::extension::Profile"
	StereotypeClassifier         = "meta::pure::metamodel::extension::Stereotype"
	TagClassifier                = "meta::pure::metamodel::extension::Tag"
	TaggedValueClassifier        = "meta::pure::metamodel::extension::TaggedValue"
	PrimitiveTypeClassifier      = "meta::pure::metamodel::type::PrimitiveType"
	MeasureClassifier            = "meta::pure::metamodel::type::Measure"
	UnitClassifier               = "meta::pure::metamodel::type::Unit"
)

func one(name string) PropertySpec {
	return PropertySpec{Name: name}
}

func many(name string) PropertySpec {
	return PropertySpec{Name: name, Many: true}
}

// DefaultClasses returns the descriptors of the core metamodel.
func DefaultClasses() []*Class {
	return []*Class{
		MustClass(PackageClassifier,
			one("name"), one("package"), many("children"), many("referenceUsages"),
			many("stereotypes"), many("taggedValues")),
		MustClass(ClassClassifier,
			one("name"), one("package"), many("properties"), many("qualifiedProperties"),
			many("generalizations"), many("specializations"), many("propertiesFromAssociations"),
			many("qualifiedPropertiesFromAssociations"), many("referenceUsages"), many("stereotypes"),
			many("taggedValues"), one("classifierGenericType"), many("typeParameters"), many("constraints")),
		MustClass(PropertyClassifier,
			one("name"), one("owner"), one("genericType"), one("multiplicity"), one("aggregation"),
			one("defaultValue"), many("stereotypes"), many("taggedValues"), many("applications"),
			many("referenceUsages")),
		MustClass(QualifiedPropertyClassifier,
			one("name"), one("owner"), one("functionName"), one("genericType"), one("multiplicity"),
			many("expressionSequence"), many("stereotypes"), many("taggedValues"), many("applications"),
			many("referenceUsages")),
		MustClass(AssociationClassifier,
			one("name"), one("package"), many("properties"), many("qualifiedProperties"),
			many("originalMilestonedProperties"), many("stereotypes"), many("taggedValues"),
			many("referenceUsages")),
		MustClass(EnumerationClassifier,
			one("name"), one("package"), many("values"), many("generalizations"), many("specializations"),
			many("stereotypes"), many("taggedValues"), many("referenceUsages"), one("classifierGenericType")),
		MustClass(EnumClassifier,
			one("name"), many("stereotypes"), many("taggedValues"), many("referenceUsages")),
		MustClass(FunctionClassifier,
			one("name"), one("package"), one("functionName"), one("classifierGenericType"),
			many("expressionSequence"), many("stereotypes"), many("taggedValues"), many("applications"),
			many("referenceUsages"), many("tests")),
		MustClass(NativeFunctionClassifier,
			one("name"), one("package"), one("functionName"), one("classifierGenericType"),
			many("stereotypes"), many("taggedValues"), many("applications"), many("referenceUsages")),
		MustClass(FunctionExpressionClassifier,
			one("func"), one("functionName"), one("genericType"), one("multiplicity"), one("importGroup"),
			many("parametersValues"), one("usageContext")),
		MustClass(InstanceValueClassifier,
			one("genericType"), one("multiplicity"), many("values"), one("usageContext")),
		MustClass(GeneralizationClassifier,
			one("general"), one("specific"), many("referenceUsages")),
		MustClass(GenericTypeClassifier,
			one("rawType"), one("typeParameter"), many("typeArguments"), many("multiplicityArguments"),
			many("referenceUsages")),
		MustClass(MultiplicityClassifier,
			one("lowerBound"), one("upperBound"), one("multiplicityParameter")),
		MustClass(ReferenceUsageClassifier,
			one("offset"), one("owner"), one("propertyName")),
		MustClass(ProfileClassifier,
			one("name"), one("package"), many("p_stereotypes"), many("p_tags"), many("referenceUsages")),
		MustClass(StereotypeClassifier,
			one("value"), one("profile"), many("modelElements"), many("referenceUsages")),
		MustClass(TagClassifier,
			one("value"), one("profile"), many("modelElements"), many("referenceUsages")),
		MustClass(TaggedValueClassifier,
			one("tag"), one("value")),
		MustClass(PrimitiveTypeClassifier,
			one("name"), one("package"), many("generalizations"), many("specializations"),
			many("stereotypes"), many("taggedValues"), many("referenceUsages")),
		MustClass(MeasureClassifier,
			one("name"), one("package"), one("canonicalUnit"), many("nonCanonicalUnits"),
			many("generalizations"), many("specializations"), many("referenceUsages")),
		MustClass(UnitClassifier,
			one("name"), one("package"), one("measure"), one("conversionFunction"),
			many("generalizations"), many("specializations"), many("referenceUsages")),
	}
}

// DefaultClassRegistry returns a registry holding DefaultClasses.
func DefaultClassRegistry() *ClassRegistry {
	return NewClassRegistry(DefaultClasses()...)
}
